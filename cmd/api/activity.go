package main

import (
	"net/http"

	"barangay/internal/domain/activity"
	"barangay/internal/params"
)

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 100
)

// recentActivityHandler godoc
//
//	@Summary		Recent activity
//	@Description	Latest audit entries, newest first.
//	@Tags			activity
//	@Produce		json
//	@Param			municipality_id	query		int	false	"Barangay"
//	@Param			limit			query		int	false	"How many entries"	default(10)
//	@Success		200				{array}		activity.Entry
//	@Failure		403				{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/activity [get]
func (app *application) recentActivityHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	muni, err := params.OptionalInt64(q, "municipality_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	limit := params.Limit(q, defaultActivityLimit, maxActivityLimit)

	entries, err := app.workflow.RecentActivity(r.Context(), session(r), muni, limit)
	if err != nil {
		app.workflowError(w, r, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}

	if err := app.jsonResponse(w, http.StatusOK, entries); err != nil {
		app.internalServerError(w, r, err)
	}
}
