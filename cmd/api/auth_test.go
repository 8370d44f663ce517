package main

import (
	"net/http"
	"testing"

	"barangay/internal/domain/users"
	"barangay/internal/rbac"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(request{method: http.MethodPost, path: apiPath("/authentication/user"), body: RegisterUserPayload{
		FirstName: "Lito",
		LastName:  "Reyes",
		Email:     "Lito@Example.com",
		Phone:     "09171234567",
		Password:  "longenough",
	}})
	requireStatus(t, rr, http.StatusCreated)

	created := decodeData[users.User](t, rr)
	assert.Equal(t, rbac.RoleResident, created.Role)
	assert.Equal(t, "lito@example.com", created.Email)
	assert.Nil(t, created.MunicipalityID)
	assert.Equal(t, 1, s.notes.count(), "welcome notification queued")

	t.Run("duplicate email", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/authentication/user"), body: RegisterUserPayload{
			FirstName: "Lito", LastName: "Reyes", Email: "lito@example.com", Password: "longenough",
		}})
		requireStatus(t, rr, http.StatusConflict)
	})

	t.Run("bad phone", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/authentication/user"), body: RegisterUserPayload{
			FirstName: "Mae", LastName: "Cruz", Email: "mae@example.com", Phone: "12345", Password: "longenough",
		}})
		requireStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("unknown field", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/authentication/user"), body: map[string]string{
			"first_name": "Mae", "last_name": "Cruz", "email": "mae@example.com", "password": "longenough",
			"role": "super_admin",
		}})
		requireStatus(t, rr, http.StatusBadRequest)
	})
}

func TestRegisterUserCaptcha(t *testing.T) {
	captcha := &stubCaptcha{err: ErrTurnstileFailed}
	s := newTestServer(t, func(app *application) { app.captcha = captcha })

	rr := s.do(request{method: http.MethodPost, path: apiPath("/authentication/user"), body: RegisterUserPayload{
		FirstName: "Bot", LastName: "Net", Email: "bot@example.com", Password: "longenough",
	}})
	requireStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, 1, captcha.calls)
	assert.Equal(t, 0, s.db.Calls("users.Create"))

	captcha.err = nil
	rr = s.do(request{method: http.MethodPost, path: apiPath("/authentication/user"), body: RegisterUserPayload{
		FirstName: "Real", LastName: "Person", Email: "real@example.com", Password: "longenough",
		CaptchaToken: "token-from-widget",
	}})
	requireStatus(t, rr, http.StatusCreated)
}

func TestSignInLanding(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		user    users.User
		from    string
		landing string
	}{
		{"resident", s.resident, "", "/dashboard"},
		{"official", s.official, "", "/admin/dashboard"},
		{"super admin", s.admin, "", "/super-admin/dashboard"},
		{"preserved location is not followed", s.official, "/reports", "/admin/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := apiPath("/authentication/token")
			if tt.from != "" {
				target += "?from=" + tt.from
			}
			rr := s.do(request{method: http.MethodPost, path: target, body: CreateUserTokenPayload{
				Email: tt.user.Email, Password: testPassword,
			}})
			requireStatus(t, rr, http.StatusOK)

			tokens := decodeData[TokenResponse](t, rr)
			assert.Equal(t, tt.landing, tokens.Landing)
			assert.Equal(t, tt.user.Role.String(), tokens.Role)
			assert.NotEmpty(t, tokens.AccessToken)
			assert.NotEmpty(t, tokens.RefreshToken)
		})
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(request{method: http.MethodPost, path: apiPath("/authentication/token"), body: CreateUserTokenPayload{
		Email: s.resident.Email, Password: "wrong-password",
	}})
	requireStatus(t, rr, http.StatusUnauthorized)

	rr = s.do(request{method: http.MethodPost, path: apiPath("/authentication/token"), body: CreateUserTokenPayload{
		Email: "nobody@example.com", Password: testPassword,
	}})
	requireStatus(t, rr, http.StatusUnauthorized)
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(request{method: http.MethodPost, path: apiPath("/authentication/token"), body: CreateUserTokenPayload{
		Email: s.resident.Email, Password: testPassword,
	}})
	requireStatus(t, rr, http.StatusOK)
	first := decodeData[TokenResponse](t, rr)

	rr = s.do(request{method: http.MethodPost, path: apiPath("/authentication/refresh"), body: RefreshPayload{
		RefreshToken: first.RefreshToken,
	}})
	requireStatus(t, rr, http.StatusOK)
	second := decodeData[TokenResponse](t, rr)
	require.NotEmpty(t, second.RefreshToken)

	rr = s.do(request{method: http.MethodPost, path: apiPath("/users/logout"), as: &s.resident})
	requireStatus(t, rr, http.StatusNoContent)

	rr = s.do(request{method: http.MethodPost, path: apiPath("/authentication/refresh"), body: RefreshPayload{
		RefreshToken: second.RefreshToken,
	}})
	requireStatus(t, rr, http.StatusUnauthorized)
}

type currentUserView struct {
	ID           int64  `json:"id"`
	Role         string `json:"role"`
	Municipality *struct {
		Name string `json:"name"`
	} `json:"municipality"`
}

func TestCurrentUser(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(request{method: http.MethodGet, path: apiPath("/users/me"), as: &s.resident})
	requireStatus(t, rr, http.StatusOK)

	me := decodeData[currentUserView](t, rr)
	assert.Equal(t, s.resident.ID, me.ID)
	assert.Equal(t, "resident", me.Role)
	require.NotNil(t, me.Municipality)
	assert.Equal(t, "San Isidro", me.Municipality.Name)

	rr = s.do(request{method: http.MethodGet, path: apiPath("/users/me")})
	requireStatus(t, rr, http.StatusUnauthorized)
}
