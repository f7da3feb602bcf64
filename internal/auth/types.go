package auth

import (
	"context"
	"errors"
	"time"
)

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleSystemAdmin has full platform control: user management, store
	// management, and every check the other roles pass. Admin is a superset
	// permission, not a separate hierarchy level to configure per-call.
	RoleSystemAdmin Role = "system_admin"

	// RoleNormalUser is a registered customer: browses stores and submits
	// one rating per store.
	RoleNormalUser Role = "normal_user"

	// RoleStoreOwner runs one or more stores and can see the ratings
	// submitted against them.
	RoleStoreOwner Role = "store_owner"
)

// ValidRoles is the closed set of account roles.
var ValidRoles = []Role{RoleSystemAdmin, RoleNormalUser, RoleStoreOwner}

// IsValidRole returns true if the role is a member of the closed role set.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// TokenKind distinguishes access tokens from refresh tokens.
// A token of one kind is never accepted where the other is required.
type TokenKind string

const (
	// TokenKindAccess marks a short-lived credential used to authorise requests.
	TokenKindAccess TokenKind = "access"

	// TokenKindRefresh marks a longer-lived credential exchanged exactly once
	// for a new token pair.
	TokenKindRefresh TokenKind = "refresh"
)

// Account is the directory record for a registered user.
// The directory's role and is_active values are authoritative at
// verification time; embedded token claims never override them.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the resolved result of a successful access-token
// verification, attached to the request context for handlers.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// UserDirectory resolves account state during verification.
// Implementations return ErrAccountNotFound when no account exists
// for the given id.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*Account, error)
}

// CredentialVerifier checks a plaintext password against a stored hash.
// Password hashing is not implemented in this repository; the login path
// consumes this capability from the embedding deployment.
type CredentialVerifier interface {
	Verify(password, passwordHash string) (bool, error)
}

// Sentinel errors for token and session operations.
var (
	ErrMissingToken       = errors.New("missing bearer token")
	ErrMalformedToken     = errors.New("malformed token")
	ErrBadSignature       = errors.New("token signature verification failed")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrWrongTokenKind     = errors.New("wrong token kind")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
)
