package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"barangay/internal/domain/documents"
	"barangay/internal/params"
	"barangay/internal/review"
	"barangay/internal/workflow"

	"github.com/go-chi/chi/v5"
)

type DocumentTypeResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// documentTypesHandler godoc
//
//	@Summary		Document types
//	@Tags			document-requests
//	@Produce		json
//	@Success		200	{array}	DocumentTypeResponse
//	@Security		ApiKeyAuth
//	@Router			/document-requests/types [get]
func (app *application) documentTypesHandler(w http.ResponseWriter, r *http.Request) {
	types := documents.Types()
	out := make([]DocumentTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, DocumentTypeResponse{
			Value: string(t),
			Label: strings.ReplaceAll(string(t), "_", " "),
		})
	}
	if err := app.jsonResponse(w, http.StatusOK, out); err != nil {
		app.internalServerError(w, r, err)
	}
}

type SubmitDocumentPayload struct {
	DocumentType string `json:"document_type" validate:"required"`
	Purpose      string `json:"purpose" validate:"required,max=500"`
}

// submitDocumentHandler godoc
//
//	@Summary		Request a document
//	@Description	Residents of a barangay request a certificate from it.
//	@Tags			document-requests
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SubmitDocumentPayload	true	"Document request"
//	@Success		201		{object}	documents.Request
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		409		{object}	error	"Not a member of any barangay"
//	@Security		ApiKeyAuth
//	@Router			/document-requests [post]
func (app *application) submitDocumentHandler(w http.ResponseWriter, r *http.Request) {
	var payload SubmitDocumentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	docType, err := documents.ParseType(payload.DocumentType)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req, err := app.workflow.SubmitDocument(r.Context(), session(r), workflow.DocumentInput{
		Type:    docType,
		Purpose: payload.Purpose,
	})
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, req); err != nil {
		app.internalServerError(w, r, err)
	}
}

// documentQuery reads ?municipality_id=&status=&type=&page=&limit=.
func documentQuery(r *http.Request) (workflow.DocumentQuery, params.Pagination, error) {
	q := r.URL.Query()
	p := params.ParsePagination(q)
	out := workflow.DocumentQuery{Page: workflow.Page{Limit: p.Limit, Offset: p.Offset}}

	muni, err := params.OptionalInt64(q, "municipality_id")
	if err != nil {
		return out, p, err
	}
	out.MunicipalityID = muni

	if s := params.OptionalString(q, "status"); s != nil {
		st, err := review.ParseDocumentStatus(*s)
		if err != nil {
			return out, p, fmt.Errorf("%w: %v", params.ErrInvalid, err)
		}
		out.Status = &st
	}
	if s := params.OptionalString(q, "type"); s != nil {
		t, err := documents.ParseType(*s)
		if err != nil {
			return out, p, fmt.Errorf("%w: %v", params.ErrInvalid, err)
		}
		out.Type = &t
	}
	return out, p, nil
}

// myDocumentRequestsHandler godoc
//
//	@Summary		My document requests
//	@Tags			document-requests
//	@Produce		json
//	@Param			status	query		string	false	"pending, approved, denied or completed"
//	@Param			type	query		string	false	"Document type"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	PaginatedResponse[documents.Request]
//	@Security		ApiKeyAuth
//	@Router			/document-requests/mine [get]
func (app *application) myDocumentRequestsHandler(w http.ResponseWriter, r *http.Request) {
	q, p, err := documentQuery(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, total, err := app.workflow.MyDocumentRequests(r.Context(), session(r), q)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, paginated(items, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// documentByReferenceHandler godoc
//
//	@Summary		Look up a document request by reference
//	@Tags			document-requests
//	@Produce		json
//	@Param			reference	path		string	true	"Reference code"
//	@Success		200			{object}	documents.Request
//	@Failure		400			{object}	error	"Bad reference"
//	@Failure		404			{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/document-requests/ref/{reference} [get]
func (app *application) documentByReferenceHandler(w http.ResponseWriter, r *http.Request) {
	req, err := app.workflow.DocumentByReference(r.Context(), session(r), chi.URLParam(r, "reference"))
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, req); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getDocumentHandler godoc
//
//	@Summary		Get a document request
//	@Tags			document-requests
//	@Produce		json
//	@Param			requestID	path		int	true	"Request ID"
//	@Success		200			{object}	documents.Request
//	@Failure		404			{object}	error	"Not found"
//	@Security		ApiKeyAuth
//	@Router			/document-requests/{requestID} [get]
func (app *application) getDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "requestID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req, err := app.workflow.Document(r.Context(), session(r), id)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, req); err != nil {
		app.internalServerError(w, r, err)
	}
}

// documentQueueHandler godoc
//
//	@Summary		Document requests to review
//	@Tags			document-requests
//	@Produce		json
//	@Param			municipality_id	query		int		false	"Barangay"
//	@Param			status			query		string	false	"pending, approved, denied or completed"
//	@Param			type			query		string	false	"Document type"
//	@Param			page			query		int		false	"Page"
//	@Param			limit			query		int		false	"Page size"
//	@Success		200				{object}	PaginatedResponse[documents.Request]
//	@Failure		403				{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/document-requests [get]
func (app *application) documentQueueHandler(w http.ResponseWriter, r *http.Request) {
	q, p, err := documentQuery(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, total, err := app.workflow.DocumentQueue(r.Context(), session(r), q)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, paginated(items, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RemarksPayload struct {
	Remarks *string `json:"remarks" validate:"omitempty,max=500"`
}

type documentTransition func(ctx context.Context, sess workflow.Session, id int64, remarks *string) (*documents.Request, error)

// transitionDocument serves approve, deny and complete. The body is optional.
func (app *application) transitionDocument(w http.ResponseWriter, r *http.Request, fn documentTransition) {
	id, err := idParam(r, "requestID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload RemarksPayload
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &payload); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		if err := Validate.Struct(payload); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	req, err := fn(r.Context(), session(r), id, payload.Remarks)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, req); err != nil {
		app.internalServerError(w, r, err)
	}
}

// approveDocumentHandler godoc
//
//	@Summary		Approve a document request
//	@Tags			document-requests
//	@Accept			json
//	@Produce		json
//	@Param			requestID	path		int				true	"Request ID"
//	@Param			payload		body		RemarksPayload	false	"Remarks"
//	@Success		200			{object}	documents.Request
//	@Failure		404			{object}	error	"Not found or already processed"
//	@Security		ApiKeyAuth
//	@Router			/document-requests/{requestID}/approve [post]
func (app *application) approveDocumentHandler(w http.ResponseWriter, r *http.Request) {
	app.transitionDocument(w, r, app.workflow.ApproveDocument)
}

// denyDocumentHandler godoc
//
//	@Summary		Deny a document request
//	@Description	Remarks are required when DOCUMENT_DENIAL_REASON_REQUIRED is set.
//	@Tags			document-requests
//	@Accept			json
//	@Produce		json
//	@Param			requestID	path		int				true	"Request ID"
//	@Param			payload		body		RemarksPayload	false	"Remarks"
//	@Success		200			{object}	documents.Request
//	@Failure		400			{object}	error	"Remarks required"
//	@Failure		404			{object}	error	"Not found or already processed"
//	@Security		ApiKeyAuth
//	@Router			/document-requests/{requestID}/deny [post]
func (app *application) denyDocumentHandler(w http.ResponseWriter, r *http.Request) {
	app.transitionDocument(w, r, app.workflow.DenyDocument)
}

// completeDocumentHandler godoc
//
//	@Summary		Mark a document request completed
//	@Description	Only approved requests can be completed.
//	@Tags			document-requests
//	@Accept			json
//	@Produce		json
//	@Param			requestID	path		int				true	"Request ID"
//	@Param			payload		body		RemarksPayload	false	"Remarks"
//	@Success		200			{object}	documents.Request
//	@Failure		404			{object}	error	"Not found or already processed"
//	@Security		ApiKeyAuth
//	@Router			/document-requests/{requestID}/complete [post]
func (app *application) completeDocumentHandler(w http.ResponseWriter, r *http.Request) {
	app.transitionDocument(w, r, app.workflow.CompleteDocument)
}
