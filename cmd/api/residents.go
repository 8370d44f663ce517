package main

import (
	"net/http"

	"barangay/internal/params"
	"barangay/internal/workflow"
)

// listResidentsHandler godoc
//
//	@Summary		Residents of a barangay
//	@Description	Officials list their own barangay. Super admins may pass municipality_id or list everyone.
//	@Tags			residents
//	@Produce		json
//	@Param			municipality_id	query		int		false	"Barangay"
//	@Param			search			query		string	false	"Matches name or email"
//	@Param			page			query		int		false	"Page"
//	@Param			limit			query		int		false	"Page size"
//	@Success		200				{object}	PaginatedResponse[users.User]
//	@Failure		400				{object}	error	"Bad Request"
//	@Failure		403				{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/residents [get]
func (app *application) listResidentsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	muni, err := params.OptionalInt64(q, "municipality_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, total, err := app.workflow.Residents(r.Context(), session(r), workflow.ResidentQuery{
		MunicipalityID: muni,
		Search:         q.Get("search"),
		Page:           workflow.Page{Limit: p.Limit, Offset: p.Offset},
	})
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, paginated(items, p, total)); err != nil {
		app.internalServerError(w, r, err)
	}
}
