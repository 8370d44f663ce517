package rbac

import (
	"database/sql/driver"
	"fmt"
)

// Role is the authority level of a user. The zero value is RoleUnknown and
// holds no permissions.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleResident
	RoleOfficial
	RoleSuperAdmin

	roleCount
)

var roleNames = [...]string{
	RoleUnknown:    "",
	RoleResident:   "resident",
	RoleOfficial:   "official",
	RoleSuperAdmin: "super_admin",
}

var _ = [1]struct{}{}[len(roleNames)-int(roleCount)]

// Roles lists every defined role, lowest privilege first.
func Roles() []Role {
	return []Role{RoleResident, RoleOfficial, RoleSuperAdmin}
}

func (r Role) String() string {
	if r >= roleCount {
		return ""
	}
	return roleNames[r]
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r > RoleUnknown && r < roleCount
}

// ParseRole maps the stored text form back to a Role.
func ParseRole(s string) (Role, error) {
	for i := RoleResident; i < roleCount; i++ {
		if roleNames[i] == s {
			return i, nil
		}
	}
	return RoleUnknown, fmt.Errorf("rbac: unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("rbac: cannot marshal role %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Scan implements sql.Scanner for TEXT columns.
func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		*r = RoleUnknown
		return nil
	default:
		return fmt.Errorf("rbac: cannot scan %T into Role", src)
	}
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("rbac: invalid role %d", r)
	}
	return r.String(), nil
}

func IsResident(r Role) bool   { return r == RoleResident }
func IsOfficial(r Role) bool   { return r == RoleOfficial }
func IsSuperAdmin(r Role) bool { return r == RoleSuperAdmin }
