package workflow

import (
	"context"

	"barangay/internal/rbac"
)

// Session is the signed-in caller. It is built once per request from the
// access token and the user row and passed explicitly to every operation.
type Session struct {
	UserID         int64
	Role           rbac.Role
	MunicipalityID *int64
	FullName       string
	Email          string
}

func (s Session) Can(p rbac.Permission) bool {
	return rbac.HasPermission(s.Role, p)
}

func (s Session) CanAll(ps ...rbac.Permission) bool {
	return rbac.HasAllPermissions(s.Role, ps...)
}

// Administers reports whether the caller may act on records of the given
// municipality: super admins everywhere, officials only at home.
func (s Session) Administers(municipalityID int64) bool {
	switch s.Role {
	case rbac.RoleSuperAdmin:
		return true
	case rbac.RoleOfficial:
		return s.MunicipalityID != nil && *s.MunicipalityID == municipalityID
	}
	return false
}

// scope resolves which municipality a listing covers. Officials are pinned
// to their own; super admins may narrow to one or see all with nil.
func (s Session) scope(requested *int64) (*int64, error) {
	switch s.Role {
	case rbac.RoleSuperAdmin:
		return requested, nil
	case rbac.RoleOfficial:
		if s.MunicipalityID == nil {
			return nil, ErrNoMunicipality
		}
		if requested != nil && *requested != *s.MunicipalityID {
			return nil, ErrForbidden
		}
		id := *s.MunicipalityID
		return &id, nil
	}
	return nil, ErrForbidden
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
