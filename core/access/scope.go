// Package access resolves what part of the school a caller may act on.
//
// Every caller is scoped by branch: a super admin may act on any branch while every other role is
// restricted to its home branch. A restricted caller without a home branch may act on nothing.
package access

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when a target falls outside of the caller's scope.
var ErrForbidden = errors.New("permission denied")

// Roles
const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleBranchAdmin Role = "BRANCH_ADMIN"
	RoleTeacher     Role = "TEACHER"
)

var (
	AllRoles = []Role{RoleSuperAdmin, RoleBranchAdmin, RoleTeacher}

	RoleChoices = []RoleChoice{
		{Name: "Super Admin", Value: RoleSuperAdmin},
		{Name: "Branch Admin", Value: RoleBranchAdmin},
		{Name: "Teacher/Staff", Value: RoleTeacher},
	}
)

type Role string

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type RoleChoice struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

// Identity is an authenticated caller, already resolved from its account.
type Identity struct {
	AccountID  int64
	Username   string
	Role       Role
	BranchID   *int64
	BranchCity string
}

type scopeKind uint8

const (
	denyAll scopeKind = iota // zero value fails closed
	unrestricted
	restricted
)

// Scope is either Unrestricted or RestrictedTo a single branch.
// The zero Scope permits nothing.
type Scope struct {
	kind     scopeKind
	branchID int64
}

func Unrestricted() Scope {
	return Scope{kind: unrestricted}
}

// RestrictedTo returns a Scope limited to the given branch; a nil branch permits nothing.
func RestrictedTo(branchID *int64) Scope {
	if branchID == nil {
		return Scope{kind: denyAll}
	}
	return Scope{kind: restricted, branchID: *branchID}
}

// Resolve computes the Scope of an identity. It is a pure function of the identity's role and branch.
func Resolve(id Identity) Scope {
	if id.Role == RoleSuperAdmin {
		return Unrestricted()
	}
	return RestrictedTo(id.BranchID)
}

func (s Scope) IsUnrestricted() bool {
	return s.kind == unrestricted
}

// DeniesAll reports whether the scope permits no branch at all.
func (s Scope) DeniesAll() bool {
	return s.kind == denyAll
}

// Branch returns the branch the scope is restricted to, if any.
func (s Scope) Branch() (int64, bool) {
	return s.branchID, s.kind == restricted
}

// Permits reports whether the scope allows acting on the given branch.
func (s Scope) Permits(branchID int64) bool {
	switch s.kind {
	case unrestricted:
		return true
	case restricted:
		return s.branchID == branchID
	default:
		return false
	}
}

// Authorize is Permits as an error: ErrForbidden when the branch is out of scope.
func (s Scope) Authorize(branchID int64) error {
	if !s.Permits(branchID) {
		return ErrForbidden
	}
	return nil
}

func (s Scope) String() string {
	switch s.kind {
	case unrestricted:
		return "Unrestricted"
	case restricted:
		return fmt.Sprintf("RestrictedTo(%d)", s.branchID)
	default:
		return "RestrictedTo(none)"
	}
}
