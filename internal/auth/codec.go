package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity payload embedded in signed tokens. It extends the
// JWT registered claims with the fields the verification path needs. The
// payload is deliberately minimal: subject id, email, role, display name.
// Credential hashes and other secrets never enter a token.
type Claims struct {
	jwt.RegisteredClaims
	Role        Role      `json:"role"`
	DisplayName string    `json:"name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Kind        TokenKind `json:"kind"`
	RotationID  string    `json:"rtid,omitempty"`
}

// Codec encodes and decodes signed, time-bounded tokens. It is stateless
// apart from the fixed signing secret and the issuer/audience tags that
// scope tokens to this deployment, and is safe for concurrent use.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
}

// NewCodec creates a token codec.
//
// The secret must be at least 32 bytes; a missing or weak secret is a
// configuration error and the codec refuses to exist rather than sign
// forgeable tokens. Callers treat this error as fatal at startup.
func NewCodec(secret, issuer, audience string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token codec: signing secret is required")
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("token codec: signing secret must be at least %d bytes", minSecretLength)
	}
	if issuer == "" || audience == "" {
		return nil, fmt.Errorf("token codec: issuer and audience are required")
	}
	return &Codec{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}, nil
}

// minSecretLength is the minimum HS256 signing secret length in bytes.
const minSecretLength = 32

// Encode serialises the claims with standard fields (issuer, audience,
// issued-at, expires-at = issued-at + ttl) and signs them with HS256.
// A fresh jti is generated when the claims carry none.
func (c *Codec) Encode(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.Issuer = c.issuer
	claims.Audience = jwt.ClaimStrings{c.audience}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", claims.Kind, err)
	}
	return signed, nil
}

// Decode verifies signature, issuer, audience, and lifetime, returning the
// embedded claims. It never mutates state and never returns claims whose
// signature has not been verified.
//
// Failures map onto the sentinel taxonomy:
//   - ErrMalformedToken: structural problems, wrong issuer/audience,
//     missing subject or role
//   - ErrBadSignature: signature check failed
//   - ErrTokenExpired: current time past expires-at
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformedToken
	}

	if err := validateClaims(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// Inspect verifies the signature but skips lifetime validation, so the
// claims of an already-expired token can still be read. It exists for the
// revocation store (which needs a token's natural expiry) and for
// debugging; it must never gate an access decision.
func (c *Codec) Inspect(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// keyFunc returns the fixed signing secret for any correctly-typed token.
// Method validity is enforced by the WithValidMethods parser option.
func (c *Codec) keyFunc(_ *jwt.Token) (any, error) {
	return c.secret, nil
}

// validateClaims enforces the payload fields the registered-claims
// validation does not cover.
func validateClaims(claims *Claims) error {
	if claims.Subject == "" {
		return fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}
	if !IsValidRole(claims.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrMalformedToken, claims.Role)
	}
	if claims.Kind != TokenKindAccess && claims.Kind != TokenKindRefresh {
		return fmt.Errorf("%w: unknown token kind %q", ErrMalformedToken, claims.Kind)
	}
	return nil
}

// mapJWTError translates jwt/v5 error classes onto the sentinel taxonomy.
// Signature failures are reported before lifetime failures, so an expired
// token with a forged signature surfaces as ErrBadSignature.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}
