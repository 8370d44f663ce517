package main

import (
	"net/http"
	"net/url"
	"testing"

	"barangay/internal/domain/users"
	"barangay/internal/rbac"

	"github.com/stretchr/testify/assert"
)

func TestRouteDecision(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		as         *users.User
		path       string
		outcome    rbac.Outcome
		redirectTo string
		from       string
	}{
		{"anonymous on a public page", nil, "/signin", rbac.OutcomeRender, "", ""},
		{"anonymous keeps the attempted location", nil, "/manage-requests", rbac.OutcomeRedirect, "/signin", "/manage-requests"},
		{"resident on own page", &s.resident, "/my-requests", rbac.OutcomeRender, "", ""},
		{"resident on reviewer page goes home", &s.resident, "/manage-requests", rbac.OutcomeRedirect, "/dashboard", ""},
		{"official on reviewer page", &s.official, "/residents", rbac.OutcomeRender, "", ""},
		{"official on super admin page", &s.official, "/all-verifications", rbac.OutcomeRedirect, "/admin/dashboard", ""},
		{"super admin on super admin page", &s.admin, "/municipalities", rbac.OutcomeRender, "", ""},
		{"trailing slash is the same route", &s.admin, "/municipalities/", rbac.OutcomeRender, "", ""},
		// Undeclared paths are denied to everyone.
		{"undeclared path for resident", &s.resident, "/not-a-page", rbac.OutcomeRedirect, "/dashboard", ""},
		{"undeclared path for super admin", &s.admin, "/not-a-page", rbac.OutcomeRedirect, "/super-admin/dashboard", ""},
		{"undeclared path anonymous", nil, "/not-a-page", rbac.OutcomeRedirect, "/signin", "/not-a-page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(request{
				method: http.MethodGet,
				path:   apiPath("/access/route?path=%s", url.QueryEscape(tt.path)),
				as:     tt.as,
			})
			requireStatus(t, rr, http.StatusOK)

			got := decodeData[rbac.Decision](t, rr)
			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, tt.redirectTo, got.RedirectTo)
			assert.Equal(t, tt.from, got.From)
		})
	}
}

func TestRouteDecisionRejects(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(request{method: http.MethodGet, path: apiPath("/access/route?path=manage-requests")})
	requireStatus(t, rr, http.StatusBadRequest)

	rr = s.do(request{
		method: http.MethodGet,
		path:   apiPath("/access/route?path=/dashboard"),
		header: http.Header{"Authorization": {"Bearer not-a-jwt"}},
	})
	requireStatus(t, rr, http.StatusUnauthorized)
}

func TestAccessProfile(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(request{method: http.MethodGet, path: apiPath("/access/me"), as: &s.official})
	requireStatus(t, rr, http.StatusOK)

	profile := decodeData[AccessProfile](t, rr)
	assert.Equal(t, rbac.RoleOfficial, profile.Role)
	assert.Equal(t, "/admin/dashboard", profile.Landing)
	assert.Contains(t, profile.Permissions, rbac.PermApproveRequest)
	assert.NotContains(t, profile.Permissions, rbac.PermManageMunicipalities)
	assert.Contains(t, profile.Routes, "/manage-requests")
	assert.NotContains(t, profile.Routes, "/all-verifications")
	assert.NotContains(t, profile.Routes, "/new-request")

	rr = s.do(request{method: http.MethodGet, path: apiPath("/access/me"), as: &s.resident})
	requireStatus(t, rr, http.StatusOK)
	profile = decodeData[AccessProfile](t, rr)
	assert.Equal(t, "/dashboard", profile.Landing)
	assert.ElementsMatch(t, []rbac.Permission{
		rbac.PermSubmitRequest,
		rbac.PermViewOwnRequests,
		rbac.PermJoinBarangay,
		rbac.PermRequestVerification,
	}, profile.Permissions)
}

func TestPermissionGate(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		as      *users.User
		query   string
		allowed bool
	}{
		{"official any of reviewer perms", &s.official, "any=manage_municipalities,view_reports", true},
		{"official all including super admin perm", &s.official, "all=manage_municipalities,view_reports", false},
		{"official all of own perms", &s.official, "all=view_reports,view_activity", true},
		{"super admin municipalities", &s.admin, "any=manage_municipalities", true},
		{"resident reviewer perm", &s.resident, "any=approve_request", false},
		{"empty list denies", &s.admin, "any=", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(request{method: http.MethodGet, path: apiPath("/access/permissions?%s", tt.query), as: tt.as})
			requireStatus(t, rr, http.StatusOK)
			assert.Equal(t, tt.allowed, decodeData[GateResponse](t, rr).Allowed)
		})
	}

	t.Run("both modes", func(t *testing.T) {
		rr := s.do(request{method: http.MethodGet, path: apiPath("/access/permissions?any=view_reports&all=view_reports"), as: &s.admin})
		requireStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("unknown permission", func(t *testing.T) {
		rr := s.do(request{method: http.MethodGet, path: apiPath("/access/permissions?any=launch_rockets"), as: &s.admin})
		requireStatus(t, rr, http.StatusBadRequest)
	})
}
