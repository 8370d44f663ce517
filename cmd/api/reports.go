package main

import (
	"net/http"
	"time"

	"barangay/internal/params"
)

// dashboardHandler godoc
//
//	@Summary		Dashboard counters
//	@Description	Scoped to the official's barangay; super admins get the whole system unless municipality_id is set.
//	@Tags			reports
//	@Produce		json
//	@Param			municipality_id	query		int	false	"Barangay"
//	@Success		200				{object}	dashboard.Overview
//	@Failure		403				{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/dashboard [get]
func (app *application) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	muni, err := params.OptionalInt64(r.URL.Query(), "municipality_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	overview, err := app.workflow.Overview(r.Context(), session(r), muni)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, overview); err != nil {
		app.internalServerError(w, r, err)
	}
}

// documentReportHandler godoc
//
//	@Summary		Document request report
//	@Description	Counts by status, type and day for requests submitted in [from, to). Defaults to the last 30 days.
//	@Tags			reports
//	@Produce		json
//	@Param			municipality_id	query		int		false	"Barangay"
//	@Param			from			query		string	false	"YYYY-MM-DD, inclusive"
//	@Param			to				query		string	false	"YYYY-MM-DD, exclusive"
//	@Success		200				{object}	reports.DocumentSummary
//	@Failure		400				{object}	error	"Bad range"
//	@Failure		403				{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/reports/documents [get]
func (app *application) documentReportHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	muni, err := params.OptionalInt64(q, "municipality_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	tomorrow := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	to, err := params.Date(q, "to", tomorrow)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	from, err := params.Date(q, "from", to.AddDate(0, 0, -30))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	summary, err := app.workflow.DocumentReport(r.Context(), session(r), muni, from, to)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, summary); err != nil {
		app.internalServerError(w, r, err)
	}
}
