package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ratewise/ratewise-core/internal/audit"
	"github.com/ratewise/ratewise-core/internal/auth"
)

// loginRequest is the POST /auth/login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest is the POST /auth/refresh body.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// logoutRequest is the optional POST /auth/logout body. When supplied,
// the refresh token is revoked alongside the bearer access token.
type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleLogin verifies credentials and issues a token pair.
//
// Credential failures are indistinguishable on the wire: unknown email,
// wrong password, and deactivated account all produce the same 401 so
// the endpoint cannot be used to enumerate accounts. The audit trail
// records the real reason.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.credentials == nil {
		writeError(w, http.StatusServiceUnavailable, "login_unavailable",
			"password login is not enabled on this node")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	ctx := r.Context()

	account, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			s.auditLog(ctx, audit.ActionLoginFailed, "", map[string]any{
				"email":  req.Email,
				"reason": "unknown_email",
			})
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		s.logger.Error("login lookup failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	ok, err := s.credentials.Verify(req.Password, account.PasswordHash)
	if err != nil {
		s.logger.Error("credential verification failed", "error", err, "user_id", account.ID)
		writeInternalError(w, "login failed")
		return
	}
	if !ok {
		s.auditLog(ctx, audit.ActionLoginFailed, account.ID, map[string]any{
			"reason": "bad_password",
		})
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	if !account.IsActive {
		s.auditLog(ctx, audit.ActionLoginFailed, account.ID, map[string]any{
			"reason": "account_inactive",
		})
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	pair, err := s.issuer.IssuePair(account)
	if err != nil {
		s.logger.Error("token issuance failed", "error", err, "user_id", account.ID)
		writeInternalError(w, "login failed")
		return
	}

	s.auditLog(ctx, audit.ActionLogin, account.ID, nil)
	s.logger.Info("login succeeded", "user_id", account.ID, "role", account.Role)

	writeJSON(w, http.StatusOK, pair)
}

// handleRefresh rotates a refresh token into a fresh token pair. The
// presented refresh token is single-use: rotation revokes it before the
// new pair is returned.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		writeBadRequest(w, "refresh_token is required")
		return
	}

	ctx := r.Context()

	pair, err := s.issuer.Rotate(ctx, req.RefreshToken)
	if err != nil {
		s.logger.Warn("refresh rejected", "error", err)
		writeAuthError(w, err)
		return
	}

	s.auditLog(ctx, audit.ActionRefresh, "", map[string]any{
		"rotation_id": pair.RotationID,
	})

	writeJSON(w, http.StatusOK, pair)
}

// handleLogout revokes the presented access token, and the refresh
// token too when the body supplies one. Logout always succeeds for an
// authenticated caller; revoking an already-revoked token is a no-op.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	revoked := 0
	if token := bearerFromContext(ctx); token != "" {
		if s.revocations.Revoke(token) {
			revoked++
		}
	}

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		if s.revocations.Revoke(req.RefreshToken) {
			revoked++
		}
	}

	s.auditLog(ctx, audit.ActionLogout, identity.ID, map[string]any{
		"tokens_revoked": revoked,
	})
	s.logger.Info("logout", "user_id", identity.ID, "tokens_revoked", revoked)

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "logged_out",
	})
}

// handleMe returns the authenticated caller's identity as resolved from
// the user directory, not from token claims.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	writeJSON(w, http.StatusOK, identity)
}
