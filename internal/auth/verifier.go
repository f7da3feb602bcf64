package auth

import (
	"context"
	"errors"
	"fmt"
)

// Verifier resolves bearer credentials into live identities.
//
// A single token's life is a one-way state machine:
//
//	issued -> valid -> {expired | revoked}
//
// Expired and revoked are both terminal and equally fatal to
// verification; they surface as distinct error kinds for diagnostics.
type Verifier struct {
	codec       *Codec
	revocations RevocationStore
	directory   UserDirectory
}

// NewVerifier creates a session verifier.
func NewVerifier(codec *Codec, revocations RevocationStore, directory UserDirectory) *Verifier {
	return &Verifier{
		codec:       codec,
		revocations: revocations,
		directory:   directory,
	}
}

// VerifyAccess validates an access token and resolves the current account
// state behind it.
//
// The checks run in a fixed order: decode (signature, lifetime, scope),
// token kind, revocation, then the directory lookup. The revocation result
// is captured before the directory round trip so no blacklist lock is held
// across I/O. The returned Identity is built entirely from the fresh
// directory record - role and id are authoritative from the directory, not
// the token, so role and status changes take effect without waiting for
// token expiry.
func (v *Verifier) VerifyAccess(ctx context.Context, token string) (*Identity, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return nil, err
	}

	if claims.Kind != TokenKindAccess {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrWrongTokenKind, TokenKindAccess, claims.Kind)
	}

	if v.revocations.IsRevoked(token) {
		return nil, ErrTokenRevoked
	}

	account, err := v.ResolveAccount(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	return &Identity{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        account.Role,
	}, nil
}

// VerifyRefresh validates a refresh token and returns its claims,
// including the rotation id. It does not consult the user directory;
// callers that need account liveness check separately, as Issuer.Rotate
// does.
func (v *Verifier) VerifyRefresh(token string) (*Claims, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return nil, err
	}

	if claims.Kind != TokenKindRefresh {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrWrongTokenKind, TokenKindRefresh, claims.Kind)
	}

	if v.revocations.IsRevoked(token) {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// ResolveAccount looks up an account and enforces liveness.
// Returns ErrAccountNotFound when the directory has no such account and
// ErrAccountInactive when the account has been deactivated.
func (v *Verifier) ResolveAccount(ctx context.Context, id string) (*Account, error) {
	account, err := v.directory.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("resolving account %s: %w", id, err)
	}

	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	return account, nil
}
