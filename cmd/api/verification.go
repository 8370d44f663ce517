package main

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"barangay/internal/params"
	"barangay/internal/review"
	"barangay/internal/workflow"

	"github.com/google/uuid"
)

const maxProofSize = 5 << 20

var proofContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// openProof returns the "proof" file part after checking its size and
// sniffed content type.
func openProof(w http.ResponseWriter, r *http.Request) (multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxProofSize+1<<20)
	if err := r.ParseMultipartForm(maxProofSize); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	file, header, err := r.FormFile("proof")
	if err != nil {
		return nil, errors.New("proof document is required")
	}
	if header.Size > maxProofSize {
		file.Close()
		return nil, errors.New("proof document must be 5MB or smaller")
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(file, head)
	if !proofContentTypes[http.DetectContentType(head[:n])] {
		file.Close()
		return nil, errors.New("proof document must be a JPEG, PNG or PDF")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, err
	}
	return file, nil
}

// submitVerificationHandler godoc
//
//	@Summary		Ask to become an official
//	@Description	Multipart form with municipality_id, position and a proof file (JPEG, PNG or PDF up to 5MB).
//	@Tags			verification-requests
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			municipality_id	formData	int		true	"Barangay"
//	@Param			position		formData	string	true	"Position held, e.g. Kagawad"
//	@Param			proof			formData	file	true	"Proof document"
//	@Success		201				{object}	verification.Request
//	@Failure		400				{object}	error	"Bad Request"
//	@Failure		403				{object}	error	"Forbidden"
//	@Failure		409				{object}	error	"A pending verification request exists"
//	@Security		ApiKeyAuth
//	@Router			/verification-requests [post]
func (app *application) submitVerificationHandler(w http.ResponseWriter, r *http.Request) {
	sess := session(r)

	// Refuse before the upload so no orphaned proof is stored.
	if err := app.workflow.CheckVerificationEligible(r.Context(), sess); err != nil {
		app.workflowError(w, r, err)
		return
	}

	file, err := openProof(w, r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	muniID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("municipality_id")), 10, 64)
	if err != nil || muniID <= 0 {
		app.badRequestResponse(w, r, errors.New("municipality_id is required"))
		return
	}
	position := strings.TrimSpace(r.FormValue("position"))
	if position == "" || len(position) > 100 {
		app.badRequestResponse(w, r, errors.New("position is required and at most 100 characters"))
		return
	}

	publicID := fmt.Sprintf("user_%d_%s", sess.UserID, uuid.New().String())
	uploaded, err := app.files.Upload(r.Context(), file, proofFolder, publicID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	req, err := app.workflow.SubmitVerification(r.Context(), sess, workflow.VerificationInput{
		MunicipalityID: muniID,
		Position:       position,
		ProofURL:       uploaded.URL,
		ProofPublicID:  uploaded.PublicID,
	})
	if err != nil {
		app.discardProof(uploaded.PublicID)
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, req); err != nil {
		app.internalServerError(w, r, err)
	}
}

type EligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// verificationEligibilityHandler godoc
//
//	@Summary		Can I request verification
//	@Tags			verification-requests
//	@Produce		json
//	@Success		200	{object}	EligibilityResponse
//	@Security		ApiKeyAuth
//	@Router			/verification-requests/eligibility [get]
func (app *application) verificationEligibilityHandler(w http.ResponseWriter, r *http.Request) {
	resp := EligibilityResponse{Eligible: true}
	if err := app.workflow.CheckVerificationEligible(r.Context(), session(r)); err != nil {
		if !errors.Is(err, workflow.ErrForbidden) && !errors.Is(err, review.ErrPendingVerification) {
			app.internalServerError(w, r, err)
			return
		}
		resp = EligibilityResponse{Reason: err.Error()}
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// myVerificationRequestsHandler godoc
//
//	@Summary		My verification requests
//	@Tags			verification-requests
//	@Produce		json
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{object}	PaginatedResponse[verification.Request]
//	@Security		ApiKeyAuth
//	@Router			/verification-requests/mine [get]
func (app *application) myVerificationRequestsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	items, total, err := app.workflow.MyVerificationRequests(r.Context(), session(r), workflow.Page{Limit: p.Limit, Offset: p.Offset})
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, paginated(items, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelVerificationHandler godoc
//
//	@Summary		Cancel a pending verification request
//	@Description	Deletes the request and its proof document.
//	@Tags			verification-requests
//	@Param			requestID	path	int	true	"Request ID"
//	@Success		204
//	@Failure		404	{object}	error	"Not found or already processed"
//	@Security		ApiKeyAuth
//	@Router			/verification-requests/{requestID} [delete]
func (app *application) cancelVerificationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req, err := app.workflow.CancelVerification(r.Context(), session(r), id)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}
	app.discardProof(req.ProofPublicID)

	w.WriteHeader(http.StatusNoContent)
}

// verificationQueueHandler godoc
//
//	@Summary		Verification requests to review
//	@Description	Officials see their own barangay; super admins see every barangay.
//	@Tags			verification-requests
//	@Produce		json
//	@Param			municipality_id	query		int		false	"Barangay"
//	@Param			status			query		string	false	"pending, approved or rejected"
//	@Param			page			query		int		false	"Page"
//	@Param			limit			query		int		false	"Page size"
//	@Success		200				{object}	PaginatedResponse[verification.Request]
//	@Failure		403				{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/verification-requests [get]
func (app *application) verificationQueueHandler(w http.ResponseWriter, r *http.Request) {
	q, p, err := reviewQuery(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, total, err := app.workflow.VerificationQueue(r.Context(), session(r), q)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, paginated(items, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// approveVerificationHandler godoc
//
//	@Summary		Approve a verification request
//	@Description	Promotes the requester to official of the barangay and logs the decision in one transaction.
//	@Tags			verification-requests
//	@Produce		json
//	@Param			requestID	path		int	true	"Request ID"
//	@Success		200			{object}	verification.Request
//	@Failure		403			{object}	error	"Forbidden"
//	@Failure		404			{object}	error	"Not found or already processed"
//	@Security		ApiKeyAuth
//	@Router			/verification-requests/{requestID}/approve [post]
func (app *application) approveVerificationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req, err := app.workflow.ApproveVerification(r.Context(), session(r), id)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, req); err != nil {
		app.internalServerError(w, r, err)
	}
}

// rejectVerificationHandler godoc
//
//	@Summary		Reject a verification request
//	@Tags			verification-requests
//	@Accept			json
//	@Produce		json
//	@Param			requestID	path		int				true	"Request ID"
//	@Param			payload		body		RejectPayload	true	"Reason"
//	@Success		200			{object}	verification.Request
//	@Failure		400			{object}	error	"Rejection reason is required"
//	@Failure		404			{object}	error	"Not found or already processed"
//	@Security		ApiKeyAuth
//	@Router			/verification-requests/{requestID}/reject [post]
func (app *application) rejectVerificationHandler(w http.ResponseWriter, r *http.Request) {
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

	req, err := app.workflow.RejectVerification(r.Context(), session(r), id, reason)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, req); err != nil {
		app.internalServerError(w, r, err)
	}
}
