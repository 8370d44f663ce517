package main

import (
	"errors"
	"net/http"

	"barangay/internal/domain/documents"
	"barangay/internal/domain/membership"
	"barangay/internal/domain/municipalities"
	"barangay/internal/domain/users"
	"barangay/internal/domain/verification"
	"barangay/internal/params"
	"barangay/internal/review"
	"barangay/internal/workflow"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)

	writeJSONError(w, http.StatusForbidden, workflow.ErrForbidden.Error())
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// workflowError maps service and store sentinels onto HTTP statuses. Anything
// unrecognised is a 500.
func (app *application) workflowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workflow.ErrForbidden):
		app.forbiddenResponse(w, r)
	case errors.Is(err, workflow.ErrInvalidInput),
		errors.Is(err, review.ErrReasonRequired),
		errors.Is(err, params.ErrInvalid),
		errors.Is(err, documents.ErrBadReference):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, review.ErrNotFoundOrProcessed),
		errors.Is(err, membership.ErrNotFound),
		errors.Is(err, verification.ErrNotFound),
		errors.Is(err, documents.ErrNotFound),
		errors.Is(err, municipalities.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, review.ErrAlreadyRequested),
		errors.Is(err, review.ErrPendingVerification),
		errors.Is(err, review.ErrInvalidTransition),
		errors.Is(err, workflow.ErrNoMunicipality),
		errors.Is(err, municipalities.ErrDuplicate),
		errors.Is(err, users.ErrNotResident),
		errors.Is(err, users.ErrDuplicateEmail):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
