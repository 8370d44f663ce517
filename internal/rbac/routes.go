package rbac

import "strings"

// Route is an application page the frontend can navigate to.
type Route uint8

const (
	RouteSignIn Route = iota
	RouteSignUp
	RouteProfile
	RouteResidentDashboard
	RouteNewRequest
	RouteMyRequests
	RouteJoinBarangay
	RouteRequestVerification
	RouteAdminDashboard
	RouteManageRequests
	RouteResidents
	RouteBarangayRequests
	RouteOfficialVerifications
	RouteReports
	RouteSuperAdminDashboard
	RouteAllVerifications
	RouteMunicipalities

	routeCount
)

// RoleSet is a bitset of roles.
type RoleSet uint8

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r.Valid() {
			s |= 1 << r
		}
	}
	return s
}

func (s RoleSet) Has(r Role) bool { return r.Valid() && s&(1<<r) != 0 }

func (s RoleSet) List() []Role {
	var out []Role
	for _, r := range Roles() {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

type routeAccess struct {
	path   string
	public bool
	roles  RoleSet
}

var (
	anyRole       = NewRoleSet(RoleResident, RoleOfficial, RoleSuperAdmin)
	residentsOnly = NewRoleSet(RoleResident)
	reviewers     = NewRoleSet(RoleOfficial, RoleSuperAdmin)
	superAdmins   = NewRoleSet(RoleSuperAdmin)
)

// routeTable declares every route exactly once. A route without an entry
// fails the length assertion below.
var routeTable = [...]routeAccess{
	RouteSignIn:                {path: "/signin", public: true},
	RouteSignUp:                {path: "/signup", public: true},
	RouteProfile:               {path: "/profile", roles: anyRole},
	RouteResidentDashboard:     {path: "/dashboard", roles: residentsOnly},
	RouteNewRequest:            {path: "/new-request", roles: residentsOnly},
	RouteMyRequests:            {path: "/my-requests", roles: residentsOnly},
	RouteJoinBarangay:          {path: "/join-barangay", roles: residentsOnly},
	RouteRequestVerification:   {path: "/request-verification", roles: residentsOnly},
	RouteAdminDashboard:        {path: "/admin/dashboard", roles: reviewers},
	RouteManageRequests:        {path: "/manage-requests", roles: reviewers},
	RouteResidents:             {path: "/residents", roles: reviewers},
	RouteBarangayRequests:      {path: "/barangay-requests", roles: reviewers},
	RouteOfficialVerifications: {path: "/official-verifications", roles: reviewers},
	RouteReports:               {path: "/reports", roles: reviewers},
	RouteSuperAdminDashboard:   {path: "/super-admin/dashboard", roles: superAdmins},
	RouteAllVerifications:      {path: "/all-verifications", roles: superAdmins},
	RouteMunicipalities:        {path: "/municipalities", roles: superAdmins},
}

var _ = [1]struct{}{}[len(routeTable)-int(routeCount)]

var routesByPath = func() map[string]Route {
	m := make(map[string]Route, routeCount)
	for i := Route(0); i < routeCount; i++ {
		if _, dup := m[routeTable[i].path]; dup {
			panic("rbac: duplicate route path " + routeTable[i].path)
		}
		m[routeTable[i].path] = i
	}
	return m
}()

func (r Route) Path() string {
	if r >= routeCount {
		return ""
	}
	return routeTable[r].path
}

func (r Route) Public() bool { return r < routeCount && routeTable[r].public }

// AllowedRoles is empty for public routes.
func (r Route) AllowedRoles() []Role {
	if r >= routeCount {
		return nil
	}
	return routeTable[r].roles.List()
}

// Routes returns every declared route in declaration order.
func Routes() []Route {
	out := make([]Route, routeCount)
	for i := range out {
		out[i] = Route(i)
	}
	return out
}

// LookupRoute resolves a path, ignoring a trailing slash and any query.
func LookupRoute(path string) (Route, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	r, ok := routesByPath[path]
	return r, ok
}

// CanAccessRoute reports whether role may view path. Public routes are open
// to everyone; unknown paths are closed to everyone.
func CanAccessRoute(role Role, path string) bool {
	r, ok := LookupRoute(path)
	if !ok {
		return false
	}
	if routeTable[r].public {
		return true
	}
	return routeTable[r].roles.Has(role)
}

// RoutesFor lists the non-public routes role may view.
func RoutesFor(role Role) []Route {
	var out []Route
	for i := Route(0); i < routeCount; i++ {
		if !routeTable[i].public && routeTable[i].roles.Has(role) {
			out = append(out, i)
		}
	}
	return out
}

// LandingRoute is where a role is sent after sign-in or when it hits a route
// it may not view.
func LandingRoute(role Role) Route {
	switch role {
	case RoleOfficial:
		return RouteAdminDashboard
	case RoleSuperAdmin:
		return RouteSuperAdminDashboard
	default:
		return RouteResidentDashboard
	}
}
