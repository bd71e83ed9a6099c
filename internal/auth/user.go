// Package auth is the credential and session provider: password
// verification, JWT session tokens, and the principal model that scopes
// bill visibility. The rest of the service treats it as a narrow
// collaborator.
package auth

import (
	"strings"
	"time"
)

const (
	RoleAdmin    Role = "admin"
	RoleResident Role = "resident"
)

// Role decides bill visibility: administrators see every bill, residents
// only their own.
type Role string

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleResident
}

// User is an authenticated actor of the society.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	DisplayName   string
	Role          Role
	FlatNumber    string
	ContactNumber string
	CreatedAt     time.Time
}

// Principal is the visibility scope derived from a validated session.
// An empty OwnerID means administrator scope (all bills).
type Principal struct {
	UserID string
	Role   Role
}

// OwnerScope returns the owner id to filter bill listings by: empty for
// administrators, the user id for residents.
func (p Principal) OwnerScope() string {
	if p.Role == RoleAdmin {
		return ""
	}
	return p.UserID
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrInvalidEmail
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}
