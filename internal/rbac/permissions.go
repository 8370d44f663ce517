package rbac

import (
	"fmt"
	"strings"
)

// Permission is a named capability checked independently of role.
type Permission uint8

const (
	PermSubmitRequest Permission = iota
	PermViewOwnRequests
	PermJoinBarangay
	PermRequestVerification
	PermViewAllRequests
	PermApproveRequest
	PermRejectRequest
	PermManageResidents
	PermManageBarangayRequests
	PermManageVerifications
	PermManageAllVerifications
	PermManageMunicipalities
	PermViewReports
	PermViewActivity

	permissionCount
)

var permissionNames = [...]string{
	PermSubmitRequest:          "submit_request",
	PermViewOwnRequests:        "view_own_requests",
	PermJoinBarangay:           "join_barangay",
	PermRequestVerification:    "request_verification",
	PermViewAllRequests:        "view_all_requests",
	PermApproveRequest:         "approve_request",
	PermRejectRequest:          "reject_request",
	PermManageResidents:        "manage_residents",
	PermManageBarangayRequests: "manage_barangay_requests",
	PermManageVerifications:    "manage_verifications",
	PermManageAllVerifications: "manage_all_verifications",
	PermManageMunicipalities:   "manage_municipalities",
	PermViewReports:            "view_reports",
	PermViewActivity:           "view_activity",
}

var _ = [1]struct{}{}[len(permissionNames)-int(permissionCount)]

func (p Permission) String() string {
	if p >= permissionCount {
		return fmt.Sprintf("permission(%d)", p)
	}
	return permissionNames[p]
}

func (p Permission) Valid() bool { return p < permissionCount }

// ParsePermission accepts the snake_case name of a permission.
func ParsePermission(s string) (Permission, error) {
	s = strings.TrimSpace(s)
	for i := Permission(0); i < permissionCount; i++ {
		if permissionNames[i] == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("rbac: unknown permission %q", s)
}

func (p Permission) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("rbac: cannot marshal permission %d", p)
	}
	return []byte(p.String()), nil
}

func (p *Permission) UnmarshalText(b []byte) error {
	parsed, err := ParsePermission(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// PermissionSet is a bitset of permissions.
type PermissionSet uint64

func NewPermissionSet(ps ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range ps {
		if p.Valid() {
			s |= 1 << p
		}
	}
	return s
}

func (s PermissionSet) Has(p Permission) bool {
	return p.Valid() && s&(1<<p) != 0
}

func (s PermissionSet) Union(o PermissionSet) PermissionSet { return s | o }

func (s PermissionSet) Empty() bool { return s == 0 }

// List returns the members in declaration order.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, permissionCount)
	for p := Permission(0); p < permissionCount; p++ {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

var residentPermissions = NewPermissionSet(
	PermSubmitRequest,
	PermViewOwnRequests,
	PermJoinBarangay,
	PermRequestVerification,
)

var officialPermissions = NewPermissionSet(
	PermViewAllRequests,
	PermApproveRequest,
	PermRejectRequest,
	PermManageResidents,
	PermManageBarangayRequests,
	PermManageVerifications,
	PermViewReports,
	PermViewActivity,
)

var superAdminPermissions = officialPermissions.Union(NewPermissionSet(
	PermManageAllVerifications,
	PermManageMunicipalities,
))

// rolePermissions must carry one entry per role; the assertion below stops
// the build when a role is added without one.
var rolePermissions = [...]PermissionSet{
	RoleUnknown:    0,
	RoleResident:   residentPermissions,
	RoleOfficial:   officialPermissions,
	RoleSuperAdmin: superAdminPermissions,
}

var _ = [1]struct{}{}[len(rolePermissions)-int(roleCount)]

// PermissionsOf returns the permission set granted to role.
func PermissionsOf(role Role) PermissionSet {
	if !role.Valid() {
		return 0
	}
	return rolePermissions[role]
}

// HasPermission is false for an undefined role or permission.
func HasPermission(role Role, p Permission) bool {
	return PermissionsOf(role).Has(p)
}

// HasAnyPermission is false when ps is empty.
func HasAnyPermission(role Role, ps ...Permission) bool {
	for _, p := range ps {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions is false when ps is empty.
func HasAllPermissions(role Role, ps ...Permission) bool {
	if len(ps) == 0 {
		return false
	}
	for _, p := range ps {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}
