package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"barangay/internal/rbac"
	"barangay/internal/workflow"
)

// AccessProfile tells a client what the signed-in role may see and do.
type AccessProfile struct {
	Role        rbac.Role         `json:"role" swaggertype:"string"`
	Permissions []rbac.Permission `json:"permissions" swaggertype:"array,string"`
	Routes      []string          `json:"routes"`
	Landing     string            `json:"landing"`
}

// accessProfileHandler godoc
//
//	@Summary		Access profile
//	@Description	Role, permissions and reachable routes of the caller.
//	@Tags			access
//	@Produce		json
//	@Success		200	{object}	AccessProfile
//	@Failure		401	{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/access/me [get]
func (app *application) accessProfileHandler(w http.ResponseWriter, r *http.Request) {
	sess := session(r)

	routes := rbac.RoutesFor(sess.Role)
	paths := make([]string, 0, len(routes))
	for _, rt := range routes {
		paths = append(paths, rt.Path())
	}
	perms := rbac.PermissionsOf(sess.Role).List()
	if perms == nil {
		perms = []rbac.Permission{}
	}

	profile := AccessProfile{
		Role:        sess.Role,
		Permissions: perms,
		Routes:      paths,
		Landing:     rbac.LandingRoute(sess.Role).Path(),
	}
	if err := app.jsonResponse(w, http.StatusOK, profile); err != nil {
		app.internalServerError(w, r, err)
	}
}

// routeDecisionHandler godoc
//
//	@Summary		Route guard decision
//	@Description	Whether the caller may render path. Anonymous callers are sent to sign-in with the path preserved; signed-in callers without access are sent to their landing page. Paths that are not declared are denied to everyone.
//	@Tags			access
//	@Produce		json
//	@Param			path	query		string	true	"Application path, e.g. /manage-requests"
//	@Success		200		{object}	rbac.Decision
//	@Failure		400		{object}	error	"Bad Request"
//	@Router			/access/route [get]
func (app *application) routeDecisionHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" || !strings.HasPrefix(path, "/") {
		app.badRequestResponse(w, r, errors.New("path must be an absolute application path"))
		return
	}

	state, role := rbac.AuthAnonymous, rbac.RoleUnknown
	if sess, ok := workflow.SessionFrom(r.Context()); ok {
		state, role = rbac.AuthAuthenticated, sess.Role
	}

	if err := app.jsonResponse(w, http.StatusOK, rbac.GuardRoute(state, role, path)); err != nil {
		app.internalServerError(w, r, err)
	}
}

type GateResponse struct {
	Allowed bool `json:"allowed"`
}

func parsePermissionList(raw string) ([]rbac.Permission, error) {
	var out []rbac.Permission
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := rbac.ParsePermission(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// permissionGateHandler godoc
//
//	@Summary		Permission gate
//	@Description	Evaluates a permission gate for the caller. Pass a comma separated list in either any or all. An empty list is denied.
//	@Tags			access
//	@Produce		json
//	@Param			any	query		string	false	"Allowed when the role holds at least one"
//	@Param			all	query		string	false	"Allowed when the role holds every one"
//	@Success		200	{object}	GateResponse
//	@Failure		400	{object}	error	"Bad Request"
//	@Security		ApiKeyAuth
//	@Router			/access/permissions [get]
func (app *application) permissionGateHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("any") && q.Has("all") {
		app.badRequestResponse(w, r, errors.New("use either any or all, not both"))
		return
	}

	gate := rbac.PermissionGate{Mode: rbac.MatchAny}
	raw := q.Get("any")
	if q.Has("all") {
		gate.Mode = rbac.MatchAll
		raw = q.Get("all")
	}

	perms, err := parsePermissionList(raw)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("permissions: %w", err))
		return
	}
	gate.Permissions = perms

	if err := app.jsonResponse(w, http.StatusOK, GateResponse{Allowed: gate.Allows(session(r).Role)}); err != nil {
		app.internalServerError(w, r, err)
	}
}
