package main

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/dashboard"
	"barangay/internal/domain/documents"
	"barangay/internal/domain/municipalities"
	"barangay/internal/domain/users"
	"barangay/internal/reports"
	"barangay/internal/review"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListResidents(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		as     *users.User
		query  string
		status int
		emails []string
	}{
		{"official sees own barangay", &s.official, "", http.StatusOK, []string{s.resident.Email}},
		{"official of the other barangay", &s.otherOfficial, "", http.StatusOK, nil},
		{"search by name", &s.official, "?search=ROSA", http.StatusOK, []string{s.resident.Email}},
		{"search with no match", &s.official, "?search=zzz", http.StatusOK, nil},
		{"official asking for another barangay", &s.official, "?municipality_id=" + strconv.FormatInt(s.poblacion.ID, 10), http.StatusForbidden, nil},
		{"super admin sees everyone", &s.admin, "", http.StatusOK, []string{s.newcomer.Email, s.resident.Email}},
		{"super admin narrows to a barangay", &s.admin, "?municipality_id=" + strconv.FormatInt(s.sanIsidro.ID, 10), http.StatusOK, []string{s.resident.Email}},
		{"residents may not list", &s.resident, "", http.StatusForbidden, nil},
		{"bad municipality", &s.admin, "?municipality_id=x", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(request{method: http.MethodGet, path: apiPath("/residents%s", tt.query), as: tt.as})
			requireStatus(t, rr, tt.status)
			if tt.status != http.StatusOK {
				return
			}
			page := decodeData[PaginatedResponse[users.User]](t, rr)
			var got []string
			for _, u := range page.Items {
				got = append(got, u.Email)
			}
			assert.ElementsMatch(t, tt.emails, got)
			assert.Equal(t, len(tt.emails), page.Pagination.Total)
		})
	}
}

func TestRecentActivity(t *testing.T) {
	s := newTestServer(t)
	req := s.joinRequest(t, s.sanIsidro.ID)
	rr := s.do(request{method: http.MethodPost, path: apiPath("/membership-requests/%d/approve", req.ID), as: &s.official})
	requireStatus(t, rr, http.StatusOK)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/activity"), as: &s.official})
	requireStatus(t, rr, http.StatusOK)
	entries := decodeData[[]activity.Entry](t, rr)
	require.Len(t, entries, 2)
	assert.Equal(t, activity.ActionBarangayRequestApproved, entries[0].Action, "newest first")
	assert.Equal(t, activity.ActionBarangayRequestSubmitted, entries[1].Action)
	assert.Equal(t, s.official.FullName(), entries[0].ActorName)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/activity?limit=1"), as: &s.admin})
	requireStatus(t, rr, http.StatusOK)
	assert.Len(t, decodeData[[]activity.Entry](t, rr), 1)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/activity"), as: &s.otherOfficial})
	requireStatus(t, rr, http.StatusOK)
	assert.Empty(t, decodeData[[]activity.Entry](t, rr))

	rr = s.do(request{method: http.MethodGet, path: apiPath("/activity"), as: &s.resident})
	requireStatus(t, rr, http.StatusForbidden)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t)
	s.requestDocument(t, documents.TypeBarangayClearance, "Employment")
	s.joinRequest(t, s.poblacion.ID)

	rr := s.do(request{method: http.MethodGet, path: apiPath("/dashboard"), as: &s.official})
	requireStatus(t, rr, http.StatusOK)
	local := decodeData[dashboard.Overview](t, rr)
	require.NotNil(t, local.MunicipalityID)
	assert.Equal(t, s.sanIsidro.ID, *local.MunicipalityID)
	assert.EqualValues(t, 1, local.TotalResidents)
	assert.EqualValues(t, 1, local.TotalDocumentRequests)
	assert.EqualValues(t, 1, local.PendingDocumentRequests)
	assert.EqualValues(t, 0, local.PendingMembershipRequests)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/dashboard"), as: &s.otherOfficial})
	requireStatus(t, rr, http.StatusOK)
	other := decodeData[dashboard.Overview](t, rr)
	assert.EqualValues(t, 0, other.TotalDocumentRequests)
	assert.EqualValues(t, 1, other.PendingMembershipRequests)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/dashboard"), as: &s.admin})
	requireStatus(t, rr, http.StatusOK)
	global := decodeData[dashboard.Overview](t, rr)
	assert.Nil(t, global.MunicipalityID)
	assert.EqualValues(t, 2, global.TotalResidents)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/dashboard"), as: &s.resident})
	requireStatus(t, rr, http.StatusForbidden)
}

func TestDocumentReport(t *testing.T) {
	s := newTestServer(t)
	s.requestDocument(t, documents.TypeBarangayClearance, "Employment")
	s.requestDocument(t, documents.TypeBarangayClearance, "Bank account")
	req := s.requestDocument(t, documents.TypeCertificateOfResidency, "Scholarship")
	rr := s.do(request{method: http.MethodPost, path: apiPath("/document-requests/%d/approve", req.ID), as: &s.official})
	requireStatus(t, rr, http.StatusOK)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/reports/documents"), as: &s.official})
	requireStatus(t, rr, http.StatusOK)
	sum := decodeData[reports.DocumentSummary](t, rr)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.ByStatus[review.DocumentPending])
	assert.Equal(t, 1, sum.ByStatus[review.DocumentApproved])
	assert.Equal(t, 2, sum.ByType[documents.TypeBarangayClearance])
	assert.Equal(t, 30*24*time.Hour, sum.To.Sub(sum.From), "defaults to thirty days")

	rr = s.do(request{method: http.MethodGet, path: apiPath("/reports/documents"), as: &s.otherOfficial})
	requireStatus(t, rr, http.StatusOK)
	assert.Zero(t, decodeData[reports.DocumentSummary](t, rr).Total)

	for name, query := range map[string]string{
		"unparseable date": "?from=last-week",
		"reversed range":   "?from=2026-03-10&to=2026-03-01",
		"over a year":      "?from=2024-01-01&to=2026-01-01",
	} {
		t.Run(name, func(t *testing.T) {
			rr := s.do(request{method: http.MethodGet, path: apiPath("/reports/documents%s", query), as: &s.admin})
			requireStatus(t, rr, http.StatusBadRequest)
		})
	}

	rr = s.do(request{method: http.MethodGet, path: apiPath("/reports/documents"), as: &s.resident})
	requireStatus(t, rr, http.StatusForbidden)
}

func TestMunicipalities(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(request{method: http.MethodGet, path: apiPath("/municipalities")})
	requireStatus(t, rr, http.StatusOK)
	assert.Len(t, decodeData[[]municipalities.Municipality](t, rr), 2)

	rr = s.do(request{method: http.MethodPost, path: apiPath("/municipalities"), as: &s.admin, body: CreateMunicipalityPayload{
		Name: "Mabini", Province: "Batangas",
	}})
	requireStatus(t, rr, http.StatusCreated)
	created := decodeData[municipalities.Municipality](t, rr)
	assert.Equal(t, "Mabini", created.Name)
	assert.Len(t, s.db.ActivityWith(activity.ActionMunicipalityCreated), 1)

	t.Run("duplicate name", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/municipalities"), as: &s.admin, body: CreateMunicipalityPayload{
			Name: "san isidro", Province: "Laguna",
		}})
		requireStatus(t, rr, http.StatusConflict)
	})

	t.Run("missing province", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/municipalities"), as: &s.admin, body: CreateMunicipalityPayload{
			Name: "Lipa",
		}})
		requireStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("officials cannot add barangays", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/municipalities"), as: &s.official, body: CreateMunicipalityPayload{
			Name: "Lipa", Province: "Batangas",
		}})
		requireStatus(t, rr, http.StatusForbidden)
	})

	t.Run("anonymous cannot add barangays", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/municipalities"), body: CreateMunicipalityPayload{
			Name: "Lipa", Province: "Batangas",
		}})
		requireStatus(t, rr, http.StatusUnauthorized)
	})

	rr = s.do(request{method: http.MethodGet, path: apiPath("/municipalities")})
	requireStatus(t, rr, http.StatusOK)
	assert.Len(t, decodeData[[]municipalities.Municipality](t, rr), 3)
}
