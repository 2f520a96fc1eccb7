package session

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the user's role
type Role = string

const (
	// RoleGuest is a guest role (ie. view)
	RoleGuest Role = "guest"
	// RoleMember is a member (i.e. view, edit)
	RoleMember Role = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin Role = "admin"
	// RoleOwner is an owner role (i.e. view, edit, create, delete)
	RoleOwner Role = "owner"
)

// AccountStatus is the authority's verdict on an account.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountBanned   AccountStatus = "banned"
	AccountInactive AccountStatus = "inactive"
)

// Identity is the authority-owned description of the signed-in principal.
// The client holds a read-only cached copy that is only ever replaced whole,
// never mutated field by field.
type Identity struct {
	ID               string        `json:"id"`
	Email            string        `json:"email,omitempty"`
	FirstName        string        `json:"firstName,omitempty"`
	LastName         string        `json:"lastName,omitempty"`
	Picture          string        `json:"picture,omitempty"`
	Roles            []Role        `json:"roles,omitempty"`
	TwoFactorEnabled bool          `json:"is2FAEnabled,omitempty"`
	AccountStatus    AccountStatus `json:"accountStatus,omitempty"`
	BanReason        string        `json:"banReason,omitempty"`
}

// UUID parses the identity ID as a UUID.
func (i *Identity) UUID() (uuid.UUID, error) {
	return uuid.Parse(i.ID)
}

// FullName joins first and last name, tolerating either being empty.
func (i *Identity) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
}

// HasRole checks if the identity carries a specific role.
func (i *Identity) HasRole(role Role) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the identity carries an elevated role. The machine
// derives its IsAdmin flag from this on every identity replacement.
func (i *Identity) IsAdmin() bool {
	if i == nil {
		return false
	}
	return i.HasRole(RoleAdmin) || i.HasRole(RoleOwner)
}

// IsBanned reports whether the authority suspended the account.
func (i *Identity) IsBanned() bool {
	return i != nil && i.AccountStatus == AccountBanned
}

// clone returns a copy safe to hand to read-only consumers.
func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	if i.Roles != nil {
		cp.Roles = make([]Role, len(i.Roles))
		copy(cp.Roles, i.Roles)
	}
	return &cp
}
