package main

import (
	"net/http"

	"barangay/internal/domain/municipalities"
)

// listMunicipalitiesHandler godoc
//
//	@Summary		List barangays
//	@Description	Every municipality a resident can ask to join.
//	@Tags			municipalities
//	@Produce		json
//	@Success		200	{array}		municipalities.Municipality
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Router			/municipalities [get]
func (app *application) listMunicipalitiesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.workflow.Municipalities(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if list == nil {
		list = []municipalities.Municipality{}
	}
	if err := app.jsonResponse(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateMunicipalityPayload struct {
	Name     string  `json:"name" validate:"required,max=120"`
	Province string  `json:"province" validate:"required,max=120"`
	Region   *string `json:"region" validate:"omitempty,max=120"`
}

// createMunicipalityHandler godoc
//
//	@Summary		Create a barangay
//	@Tags			municipalities
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateMunicipalityPayload	true	"Municipality"
//	@Success		201		{object}	municipalities.Municipality
//	@Failure		400		{object}	error	"Bad Request"
//	@Failure		403		{object}	error	"Forbidden"
//	@Failure		409		{object}	error	"Name already used"
//	@Security		ApiKeyAuth
//	@Router			/municipalities [post]
func (app *application) createMunicipalityHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateMunicipalityPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	m, err := app.workflow.CreateMunicipality(r.Context(), session(r), municipalities.CreateInput{
		Name:     payload.Name,
		Province: payload.Province,
		Region:   payload.Region,
	})
	if err != nil {
		app.workflowError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, m); err != nil {
		app.internalServerError(w, r, err)
	}
}
