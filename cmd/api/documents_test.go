package main

import (
	"net/http"
	"testing"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/documents"
	"barangay/internal/review"
	"barangay/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) requestDocument(t *testing.T, docType documents.Type, purpose string) documents.Request {
	t.Helper()
	rr := s.do(request{
		method: http.MethodPost,
		path:   apiPath("/document-requests"),
		as:     &s.resident,
		body:   SubmitDocumentPayload{DocumentType: string(docType), Purpose: purpose},
	})
	requireStatus(t, rr, http.StatusCreated)
	return decodeData[documents.Request](t, rr)
}

func ptr[T any](v T) *T { return &v }

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(t)

	req := s.requestDocument(t, documents.TypeBarangayClearance, "Employment requirement")
	assert.Equal(t, review.DocumentPending, req.Status)
	assert.Equal(t, s.sanIsidro.ID, req.MunicipalityID)
	require.NotEmpty(t, req.Reference)

	t.Run("requester finds it by reference", func(t *testing.T) {
		rr := s.do(request{method: http.MethodGet, path: apiPath("/document-requests/ref/%s", req.Reference), as: &s.resident})
		requireStatus(t, rr, http.StatusOK)
		assert.Equal(t, req.ID, decodeData[documents.Request](t, rr).ID)
	})

	t.Run("officials elsewhere cannot see it", func(t *testing.T) {
		rr := s.do(request{method: http.MethodGet, path: apiPath("/document-requests/%d", req.ID), as: &s.otherOfficial})
		requireStatus(t, rr, http.StatusNotFound)
	})

	t.Run("complete before approve", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/document-requests/%d/complete", req.ID), as: &s.official})
		requireStatus(t, rr, http.StatusNotFound)
	})

	rr := s.do(request{
		method: http.MethodPost,
		path:   apiPath("/document-requests/%d/approve", req.ID),
		as:     &s.official,
		body:   RemarksPayload{Remarks: ptr("Ready for pickup on Monday")},
	})
	requireStatus(t, rr, http.StatusOK)
	approved := decodeData[documents.Request](t, rr)
	assert.Equal(t, review.DocumentApproved, approved.Status)
	require.NotNil(t, approved.Remarks)
	assert.Equal(t, "Ready for pickup on Monday", *approved.Remarks)

	rr = s.do(request{method: http.MethodPost, path: apiPath("/document-requests/%d/complete", req.ID), as: &s.official})
	requireStatus(t, rr, http.StatusOK)
	assert.Equal(t, review.DocumentCompleted, decodeData[documents.Request](t, rr).Status)

	rr = s.do(request{method: http.MethodPost, path: apiPath("/document-requests/%d/deny", req.ID), as: &s.official})
	requireStatus(t, rr, http.StatusNotFound)

	assert.Len(t, s.db.ActivityWith(activity.ActionDocumentRequestSubmitted), 1)
	assert.Len(t, s.db.ActivityWith(activity.ActionDocumentRequestApproved), 1)
	assert.Len(t, s.db.ActivityWith(activity.ActionDocumentRequestCompleted), 1)
}

func TestDocumentDeny(t *testing.T) {
	t.Run("remarks optional by default", func(t *testing.T) {
		s := newTestServer(t)
		req := s.requestDocument(t, documents.TypeCertificateOfIndigency, "Medical assistance")

		rr := s.do(request{method: http.MethodPost, path: apiPath("/document-requests/%d/deny", req.ID), as: &s.official})
		requireStatus(t, rr, http.StatusOK)
		assert.Equal(t, review.DocumentDenied, decodeData[documents.Request](t, rr).Status)
	})

	t.Run("remarks required when configured", func(t *testing.T) {
		s := newTestServer(t)
		refs, err := documents.NewReferences("test-salt")
		require.NoError(t, err)
		s.app.workflow = workflow.NewService(s.db, s.notes, refs, s.app.logger, workflow.Config{RequireDenialReason: true})
		s.handler = s.app.mount()

		req := s.requestDocument(t, documents.TypeCertificateOfIndigency, "Medical assistance")

		rr := s.do(request{method: http.MethodPost, path: apiPath("/document-requests/%d/deny", req.ID), as: &s.official, body: RemarksPayload{Remarks: ptr("  ")}})
		requireStatus(t, rr, http.StatusBadRequest)

		rr = s.do(request{method: http.MethodPost, path: apiPath("/document-requests/%d/deny", req.ID), as: &s.official, body: RemarksPayload{Remarks: ptr("Not a resident of this barangay")}})
		requireStatus(t, rr, http.StatusOK)
	})
}

func TestSubmitDocumentRules(t *testing.T) {
	s := newTestServer(t)

	t.Run("needs a barangay", func(t *testing.T) {
		rr := s.do(request{
			method: http.MethodPost,
			path:   apiPath("/document-requests"),
			as:     &s.newcomer,
			body:   SubmitDocumentPayload{DocumentType: string(documents.TypeBarangayID), Purpose: "ID"},
		})
		requireStatus(t, rr, http.StatusConflict)
	})

	t.Run("unknown type", func(t *testing.T) {
		rr := s.do(request{
			method: http.MethodPost,
			path:   apiPath("/document-requests"),
			as:     &s.resident,
			body:   SubmitDocumentPayload{DocumentType: "passport", Purpose: "Travel"},
		})
		requireStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("officials do not file requests", func(t *testing.T) {
		rr := s.do(request{
			method: http.MethodPost,
			path:   apiPath("/document-requests"),
			as:     &s.official,
			body:   SubmitDocumentPayload{DocumentType: string(documents.TypeBarangayID), Purpose: "ID"},
		})
		requireStatus(t, rr, http.StatusForbidden)
	})

	t.Run("residents cannot review", func(t *testing.T) {
		req := s.requestDocument(t, documents.TypeBusinessClearance, "Sari-sari store permit")
		rr := s.do(request{method: http.MethodPost, path: apiPath("/document-requests/%d/approve", req.ID), as: &s.resident})
		requireStatus(t, rr, http.StatusForbidden)
	})
}

func TestDocumentQueues(t *testing.T) {
	s := newTestServer(t)
	s.requestDocument(t, documents.TypeBarangayClearance, "Employment")
	s.requestDocument(t, documents.TypeCertificateOfResidency, "School enrollment")

	rr := s.do(request{method: http.MethodGet, path: apiPath("/document-requests?type=barangay_clearance"), as: &s.official})
	requireStatus(t, rr, http.StatusOK)
	page := decodeData[PaginatedResponse[documents.Request]](t, rr)
	require.Len(t, page.Items, 1)
	assert.Equal(t, documents.TypeBarangayClearance, page.Items[0].Type)
	assert.NotEmpty(t, page.Items[0].Reference)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/document-requests"), as: &s.otherOfficial})
	requireStatus(t, rr, http.StatusOK)
	assert.Empty(t, decodeData[PaginatedResponse[documents.Request]](t, rr).Items)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/document-requests/mine?status=pending&limit=1"), as: &s.resident})
	requireStatus(t, rr, http.StatusOK)
	mine := decodeData[PaginatedResponse[documents.Request]](t, rr)
	assert.Len(t, mine.Items, 1)
	assert.Equal(t, 2, mine.Pagination.Total)
	assert.True(t, mine.Pagination.HasNext)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/document-requests/mine?status=lost"), as: &s.resident})
	requireStatus(t, rr, http.StatusBadRequest)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/document-requests/types"), as: &s.resident})
	requireStatus(t, rr, http.StatusOK)
	assert.Len(t, decodeData[[]DocumentTypeResponse](t, rr), len(documents.Types()))
}
