package main

import (
	"errors"
	"net/http"

	"barangay/internal/domain/municipalities"
	"barangay/internal/domain/users"
)

type userKey string

const userCtx userKey = "user"

func getUserFromContext(r *http.Request) *users.User {
	if user, ok := r.Context().Value(userCtx).(*users.User); ok {
		return user
	}
	return nil
}

// CurrentUserResponse is the signed-in user plus their barangay, if any.
type CurrentUserResponse struct {
	*users.User
	Municipality *municipalities.Municipality `json:"municipality,omitempty"`
}

// getCurrentUserHandler godoc
//
//	@Summary		Current session
//	@Description	Returns the signed-in user with their barangay.
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	CurrentUserResponse
//	@Failure		401	{object}	error	"Unauthorized"
//	@Failure		500	{object}	error	"Internal Server Error"
//	@Security		ApiKeyAuth
//	@Router			/users/me [get]
func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("no user in context"))
		return
	}

	resp := CurrentUserResponse{User: user}
	if user.MunicipalityID != nil {
		m, err := app.store.Repos().Municipalities.GetByID(r.Context(), *user.MunicipalityID)
		switch {
		case err == nil:
			resp.Municipality = m
		case errors.Is(err, municipalities.ErrNotFound):
		default:
			app.internalServerError(w, r, err)
			return
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
