package main

import (
	"fmt"
	"net/http"
	"strconv"

	"barangay/internal/params"
	"barangay/internal/review"
	"barangay/internal/workflow"

	"github.com/go-chi/chi/v5"
)

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// reviewQuery reads ?municipality_id=&status=&page=&limit= for the
// membership and verification queues.
func reviewQuery(r *http.Request) (workflow.ReviewQuery, params.Pagination, error) {
	q := r.URL.Query()
	p := params.ParsePagination(q)
	out := workflow.ReviewQuery{Page: workflow.Page{Limit: p.Limit, Offset: p.Offset}}

	muni, err := params.OptionalInt64(q, "municipality_id")
	if err != nil {
		return out, p, err
	}
	out.MunicipalityID = muni

	if s := params.OptionalString(q, "status"); s != nil {
		st, err := review.ParseStatus(*s)
		if err != nil {
			return out, p, fmt.Errorf("%w: %v", params.ErrInvalid, err)
		}
		out.Status = &st
	}
	return out, p, nil
}

type SubmitMembershipPayload struct {
	MunicipalityID int64 `json:"municipality_id" validate:"required,gt=0"`
}

// submitMembershipHandler godoc
//
//	@Summary		Ask to join a barangay
//	@Description	Fails with 409 while a pending or approved request for the same barangay exists.
//	@Tags			membership-requests
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SubmitMembershipPayload	true	"Target barangay"
//	@Success		201		{object}	membership.Request
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		403		{object}	error	"Forbidden"
//	@Failure		404		{object}	error	"Barangay not found"
//	@Failure		409		{object}	error	"Already requested"
//	@Security		ApiKeyAuth
//	@Router			/membership-requests [post]
func (app *application) submitMembershipHandler(w http.ResponseWriter, r *http.Request) {
	var payload SubmitMembershipPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req, err := app.workflow.SubmitMembership(r.Context(), session(r), payload.MunicipalityID)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, req); err != nil {
		app.internalServerError(w, r, err)
	}
}

// myMembershipRequestsHandler godoc
//
//	@Summary		My barangay requests
//	@Tags			membership-requests
//	@Produce		json
//	@Param			page	query		int	false	"Page"	default(1)
//	@Param			limit	query		int	false	"Page size"	default(15)
//	@Success		200		{object}	PaginatedResponse[membership.Request]
//	@Security		ApiKeyAuth
//	@Router			/membership-requests/mine [get]
func (app *application) myMembershipRequestsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	items, total, err := app.workflow.MyMembershipRequests(r.Context(), session(r), workflow.Page{Limit: p.Limit, Offset: p.Offset})
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, paginated(items, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelMembershipHandler godoc
//
//	@Summary		Cancel a pending barangay request
//	@Description	Only the requester may cancel and only while the request is pending.
//	@Tags			membership-requests
//	@Param			requestID	path	int	true	"Request ID"
//	@Success		204
//	@Failure		404	{object}	error	"Not found or already processed"
//	@Security		ApiKeyAuth
//	@Router			/membership-requests/{requestID} [delete]
func (app *application) cancelMembershipHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.workflow.CancelMembership(r.Context(), session(r), id); err != nil {
		app.workflowError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// membershipQueueHandler godoc
//
//	@Summary		Barangay requests to review
//	@Description	Officials see their own barangay; super admins see all or filter with municipality_id.
//	@Tags			membership-requests
//	@Produce		json
//	@Param			municipality_id	query		int		false	"Barangay"
//	@Param			status			query		string	false	"pending, approved or rejected"
//	@Param			page			query		int		false	"Page"
//	@Param			limit			query		int		false	"Page size"
//	@Success		200				{object}	PaginatedResponse[membership.Request]
//	@Failure		400				{object}	error	"Bad Request"
//	@Failure		403				{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/membership-requests [get]
func (app *application) membershipQueueHandler(w http.ResponseWriter, r *http.Request) {
	q, p, err := reviewQuery(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, total, err := app.workflow.MembershipQueue(r.Context(), session(r), q)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, paginated(items, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// approveMembershipHandler godoc
//
//	@Summary		Approve a barangay request
//	@Description	Sets the requester's barangay and logs the decision in one transaction.
//	@Tags			membership-requests
//	@Produce		json
//	@Param			requestID	path		int	true	"Request ID"
//	@Success		200			{object}	membership.Request
//	@Failure		403			{object}	error	"Forbidden"
//	@Failure		404			{object}	error	"Not found or already processed"
//	@Security		ApiKeyAuth
//	@Router			/membership-requests/{requestID}/approve [post]
func (app *application) approveMembershipHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req, err := app.workflow.ApproveMembership(r.Context(), session(r), id)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, req); err != nil {
		app.internalServerError(w, r, err)
	}
}

// RejectPayload carries the reason shown to the requester.
type RejectPayload struct {
	Reason string `json:"reason"`
}

// readReason accepts an empty body; the service rejects a blank reason.
func readReason(w http.ResponseWriter, r *http.Request) (string, error) {
	var payload RejectPayload
	if r.ContentLength == 0 {
		return "", nil
	}
	if err := readJSON(w, r, &payload); err != nil {
		return "", err
	}
	return payload.Reason, nil
}

// rejectMembershipHandler godoc
//
//	@Summary		Reject a barangay request
//	@Tags			membership-requests
//	@Accept			json
//	@Produce		json
//	@Param			requestID	path		int				true	"Request ID"
//	@Param			payload		body		RejectPayload	true	"Reason"
//	@Success		200			{object}	membership.Request
//	@Failure		400			{object}	error	"Rejection reason is required"
//	@Failure		404			{object}	error	"Not found or already processed"
//	@Security		ApiKeyAuth
//	@Router			/membership-requests/{requestID}/reject [post]
func (app *application) rejectMembershipHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	reason, err := readReason(w, r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req, err := app.workflow.RejectMembership(r.Context(), session(r), id, reason)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, req); err != nil {
		app.internalServerError(w, r, err)
	}
}
