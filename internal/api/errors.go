package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ratewise/ratewise-core/internal/auth"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeInternal   = "internal_error"

	// Authentication error codes. These describe the credential, which is
	// safe to reveal; directory-lookup failures share ErrCodeInvalidToken
	// so responses never distinguish a missing account from a deactivated
	// one.
	ErrCodeMissingToken       = "missing_token"
	ErrCodeMalformedToken     = "malformed_token"
	ErrCodeBadSignature       = "bad_signature"
	ErrCodeTokenExpired       = "token_expired"
	ErrCodeTokenRevoked       = "token_revoked"
	ErrCodeWrongTokenKind     = "wrong_token_kind"
	ErrCodeInvalidToken       = "invalid_token"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeForbidden          = "insufficient_permission"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeAuthError maps a verification failure onto its HTTP status and
// machine-readable code. Account-state failures collapse to a generic
// invalid-token code on the wire; callers log the distinct cause.
func writeAuthError(w http.ResponseWriter, err error) {
	code := ErrCodeInvalidToken
	message := "authentication failed"

	switch {
	case errors.Is(err, auth.ErrMissingToken):
		code, message = ErrCodeMissingToken, "missing or malformed Authorization header"
	case errors.Is(err, auth.ErrMalformedToken):
		code, message = ErrCodeMalformedToken, "token is malformed"
	case errors.Is(err, auth.ErrBadSignature):
		code, message = ErrCodeBadSignature, "token signature is invalid"
	case errors.Is(err, auth.ErrTokenExpired):
		code, message = ErrCodeTokenExpired, "token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = ErrCodeTokenRevoked, "token has been revoked"
	case errors.Is(err, auth.ErrWrongTokenKind):
		code, message = ErrCodeWrongTokenKind, "wrong token kind for this operation"
	case errors.Is(err, auth.ErrAccountNotFound), errors.Is(err, auth.ErrAccountInactive):
		// Deliberately indistinguishable to prevent account enumeration.
		code, message = ErrCodeInvalidToken, "authentication failed"
	case errors.Is(err, auth.ErrInvalidCredentials):
		code, message = ErrCodeInvalidCredentials, "invalid email or password"
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "insufficient permissions")
		return
	default:
		writeInternalError(w, "internal server error")
		return
	}

	writeError(w, http.StatusUnauthorized, code, message)
}
