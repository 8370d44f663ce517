package rbac

// AuthState is the session state of the caller at the time a gate runs.
type AuthState uint8

const (
	AuthLoading AuthState = iota
	AuthAnonymous
	AuthAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case AuthLoading:
		return "loading"
	case AuthAnonymous:
		return "anonymous"
	case AuthAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

type Outcome string

const (
	OutcomeLoading  Outcome = "loading"
	OutcomeRender   Outcome = "render"
	OutcomeRedirect Outcome = "redirect"
)

// Decision is what a route guard tells the client to do.
type Decision struct {
	Outcome    Outcome `json:"outcome"`
	RedirectTo string  `json:"redirect_to,omitempty"`
	// From carries the attempted location when the caller is sent to sign in.
	From string `json:"from,omitempty"`
}

// GuardRoute decides whether path is rendered for the caller. Anonymous
// callers are sent to sign-in with the attempted path preserved; signed-in
// callers without access are sent to their landing route instead of an error.
func GuardRoute(state AuthState, role Role, path string) Decision {
	switch state {
	case AuthLoading:
		return Decision{Outcome: OutcomeLoading}
	case AuthAnonymous:
		if r, ok := LookupRoute(path); ok && r.Public() {
			return Decision{Outcome: OutcomeRender}
		}
		return Decision{Outcome: OutcomeRedirect, RedirectTo: RouteSignIn.Path(), From: path}
	}

	if !role.Valid() {
		return Decision{Outcome: OutcomeRedirect, RedirectTo: RouteSignIn.Path(), From: path}
	}
	if CanAccessRoute(role, path) {
		return Decision{Outcome: OutcomeRender}
	}
	return Decision{Outcome: OutcomeRedirect, RedirectTo: LandingRoute(role).Path()}
}

// PostSignInRedirect is where a freshly signed-in user lands. The preserved
// location is not followed automatically.
func PostSignInRedirect(role Role, _ string) string {
	return LandingRoute(role).Path()
}

type GateMode uint8

const (
	MatchAny GateMode = iota
	MatchAll
)

// PermissionGate renders its content only when the role satisfies the
// listed permissions. A gate with no permissions denies.
type PermissionGate struct {
	Permissions []Permission
	Mode        GateMode
}

func RequirePermission(p Permission) PermissionGate {
	return PermissionGate{Permissions: []Permission{p}}
}

func (g PermissionGate) Allows(role Role) bool {
	if len(g.Permissions) == 0 {
		return false
	}
	if g.Mode == MatchAll {
		return HasAllPermissions(role, g.Permissions...)
	}
	return HasAnyPermission(role, g.Permissions...)
}

// RoleGate reports whether role is in the allow-list.
func RoleGate(role Role, allowed ...Role) bool {
	return NewRoleSet(allowed...).Has(role)
}
