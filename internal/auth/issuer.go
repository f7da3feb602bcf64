package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TokenPair is the result of issuing or rotating credentials.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
	// RotationID identifies the refresh token generation; each rotation
	// mints a fresh one.
	RotationID string `json:"-"`
}

// Issuer mints access/refresh token pairs and rotates refresh tokens.
type Issuer struct {
	codec       *Codec
	verifier    *Verifier
	revocations RevocationStore
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// NewIssuer creates a token issuer. The verifier supplies the refresh
// validation path and the account-liveness check used during rotation.
func NewIssuer(codec *Codec, verifier *Verifier, revocations RevocationStore, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		codec:       codec,
		verifier:    verifier,
		revocations: revocations,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

// IssuePair encodes a fresh access/refresh pair for the account. The
// refresh token carries a newly generated rotation id. The embedded
// payload is minimised to {subject id, email, role, display name}.
func (i *Issuer) IssuePair(account *Account) (*TokenPair, error) {
	base := Claims{
		Role:        account.Role,
		DisplayName: account.DisplayName,
		Email:       account.Email,
	}
	base.Subject = account.ID

	access := base
	access.Kind = TokenKindAccess
	accessToken, err := i.codec.Encode(access, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}

	refresh := base
	refresh.Kind = TokenKindRefresh
	refresh.RotationID = uuid.NewString()
	refreshToken, err := i.codec.Encode(refresh, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("issuing refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(i.accessTTL.Seconds()),
		RotationID:   refresh.RotationID,
	}, nil
}

// Rotate exchanges a still-valid refresh token for a brand-new pair,
// invalidating the old token in the same step.
//
// The old token is revoked before the new pair is returned, and the
// revocation transition is claimed exactly once: when two callers race
// with the same refresh token, one wins and the other gets
// ErrTokenRevoked. A caller retrying with the consumed token after Rotate
// returns always fails.
func (i *Issuer) Rotate(ctx context.Context, oldRefreshToken string) (*TokenPair, error) {
	claims, err := i.verifier.VerifyRefresh(oldRefreshToken)
	if err != nil {
		return nil, err
	}

	// Refresh validation does not touch the directory; rotation must not
	// re-arm sessions for deactivated or deleted accounts.
	account, err := i.verifier.ResolveAccount(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	if !i.revocations.Revoke(oldRefreshToken) {
		// Lost the race against a concurrent rotation or logout.
		return nil, ErrTokenRevoked
	}

	return i.IssuePair(account)
}

// AccessTTL returns the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}
