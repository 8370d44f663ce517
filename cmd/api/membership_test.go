package main

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"barangay/internal/domain/activity"
	"barangay/internal/domain/membership"
	"barangay/internal/domain/verification"
	"barangay/internal/review"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) joinRequest(t *testing.T, municipalityID int64) membership.Request {
	t.Helper()
	rr := s.do(request{
		method: http.MethodPost,
		path:   apiPath("/membership-requests"),
		as:     &s.newcomer,
		body:   SubmitMembershipPayload{MunicipalityID: municipalityID},
	})
	requireStatus(t, rr, http.StatusCreated)
	return decodeData[membership.Request](t, rr)
}

func TestMembershipApproveFlow(t *testing.T) {
	s := newTestServer(t)

	req := s.joinRequest(t, s.sanIsidro.ID)
	assert.Equal(t, review.StatusPending, req.Status)

	t.Run("second request for same barangay conflicts", func(t *testing.T) {
		rr := s.do(request{
			method: http.MethodPost,
			path:   apiPath("/membership-requests"),
			as:     &s.newcomer,
			body:   SubmitMembershipPayload{MunicipalityID: s.sanIsidro.ID},
		})
		requireStatus(t, rr, http.StatusConflict)
	})

	t.Run("queue is scoped to the official's barangay", func(t *testing.T) {
		rr := s.do(request{method: http.MethodGet, path: apiPath("/membership-requests?status=pending"), as: &s.official})
		requireStatus(t, rr, http.StatusOK)
		page := decodeData[PaginatedResponse[membership.Request]](t, rr)
		require.Len(t, page.Items, 1)
		assert.Equal(t, req.ID, page.Items[0].ID)
		assert.Equal(t, 1, page.Pagination.Total)

		rr = s.do(request{method: http.MethodGet, path: apiPath("/membership-requests"), as: &s.otherOfficial})
		requireStatus(t, rr, http.StatusOK)
		assert.Empty(t, decodeData[PaginatedResponse[membership.Request]](t, rr).Items)
	})

	t.Run("official of another barangay may not decide", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/membership-requests/%d/approve", req.ID), as: &s.otherOfficial})
		requireStatus(t, rr, http.StatusForbidden)
	})

	rr := s.do(request{method: http.MethodPost, path: apiPath("/membership-requests/%d/approve", req.ID), as: &s.official})
	requireStatus(t, rr, http.StatusOK)
	approved := decodeData[membership.Request](t, rr)
	assert.Equal(t, review.StatusApproved, approved.Status)

	user, _ := s.db.User(s.newcomer.ID)
	require.NotNil(t, user.MunicipalityID)
	assert.Equal(t, s.sanIsidro.ID, *user.MunicipalityID)
	assert.Len(t, s.db.ActivityWith(activity.ActionBarangayRequestApproved), 1)

	t.Run("deciding twice", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/membership-requests/%d/approve", req.ID), as: &s.official})
		requireStatus(t, rr, http.StatusNotFound)
	})
}

func TestMembershipReject(t *testing.T) {
	s := newTestServer(t)
	req := s.joinRequest(t, s.sanIsidro.ID)

	t.Run("empty body", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/membership-requests/%d/reject", req.ID), as: &s.official})
		requireStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("blank reason", func(t *testing.T) {
		rr := s.do(request{
			method: http.MethodPost,
			path:   apiPath("/membership-requests/%d/reject", req.ID),
			as:     &s.official,
			body:   RejectPayload{Reason: "   "},
		})
		requireStatus(t, rr, http.StatusBadRequest)
		stored, _ := s.db.MembershipRequest(req.ID)
		assert.Equal(t, review.StatusPending, stored.Status)
	})

	rr := s.do(request{
		method: http.MethodPost,
		path:   apiPath("/membership-requests/%d/reject", req.ID),
		as:     &s.official,
		body:   RejectPayload{Reason: "No proof of residence"},
	})
	requireStatus(t, rr, http.StatusOK)
	rejected := decodeData[membership.Request](t, rr)
	assert.Equal(t, review.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "No proof of residence", *rejected.RejectionReason)

	user, _ := s.db.User(s.newcomer.ID)
	assert.Nil(t, user.MunicipalityID)

	// A rejected request no longer blocks a new one.
	s.joinRequest(t, s.sanIsidro.ID)
}

func TestMembershipReviewIsForbiddenToResidents(t *testing.T) {
	s := newTestServer(t)
	req := s.joinRequest(t, s.sanIsidro.ID)

	for _, rq := range []request{
		{method: http.MethodGet, path: apiPath("/membership-requests")},
		{method: http.MethodPost, path: apiPath("/membership-requests/%d/approve", req.ID)},
		{method: http.MethodPost, path: apiPath("/membership-requests/%d/reject", req.ID), body: RejectPayload{Reason: "x"}},
	} {
		rq.as = &s.resident
		rr := s.do(rq)
		requireStatus(t, rr, http.StatusForbidden)
		assert.True(t, strings.Contains(decodeError(t, rr).Message, "not allowed"), rr.Body.String())
	}

	stored, _ := s.db.MembershipRequest(req.ID)
	assert.Equal(t, review.StatusPending, stored.Status)
}

func TestMembershipCancel(t *testing.T) {
	s := newTestServer(t)
	req := s.joinRequest(t, s.poblacion.ID)

	rr := s.do(request{method: http.MethodDelete, path: apiPath("/membership-requests/%d", req.ID), as: &s.resident})
	requireStatus(t, rr, http.StatusNotFound)

	rr = s.do(request{method: http.MethodDelete, path: apiPath("/membership-requests/%d", req.ID), as: &s.newcomer})
	requireStatus(t, rr, http.StatusNoContent)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/membership-requests/mine"), as: &s.newcomer})
	requireStatus(t, rr, http.StatusOK)
	assert.Empty(t, decodeData[PaginatedResponse[membership.Request]](t, rr).Items)
}

func TestMembershipQueueBadFilter(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(request{method: http.MethodGet, path: apiPath("/membership-requests?status=maybe"), as: &s.admin})
	requireStatus(t, rr, http.StatusBadRequest)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/membership-requests?municipality_id=abc"), as: &s.admin})
	requireStatus(t, rr, http.StatusBadRequest)
}

func TestStaleMembershipCannotMoveAnOfficial(t *testing.T) {
	s := newTestServer(t)
	stale := s.joinRequest(t, s.poblacion.ID)

	res := s.submitProof(t, &s.newcomer, proofForm{municipalityID: strconv.FormatInt(s.sanIsidro.ID, 10), position: "Kagawad", file: pngProof})
	requireStatus(t, res, http.StatusCreated)
	proofReq := decodeData[verification.Request](t, res)
	rr := s.do(request{method: http.MethodPost, path: apiPath("/verification-requests/%d/approve", proofReq.ID), as: &s.official})
	requireStatus(t, rr, http.StatusOK)

	rr = s.do(request{method: http.MethodPost, path: apiPath("/membership-requests/%d/approve", stale.ID), as: &s.otherOfficial})
	requireStatus(t, rr, http.StatusConflict)

	user, _ := s.db.User(s.newcomer.ID)
	require.NotNil(t, user.MunicipalityID)
	assert.Equal(t, s.sanIsidro.ID, *user.MunicipalityID)
}
