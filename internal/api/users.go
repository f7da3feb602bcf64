package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ratewise/ratewise-core/internal/audit"
	"github.com/ratewise/ratewise-core/internal/auth"
)

// authorize evaluates a policy decision for the request. On denial it
// writes a 403, records an access_denied audit entry, and returns false.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, d auth.Decision) bool {
	if d.Allowed {
		return true
	}

	identity := identityFromContext(r.Context())
	userID := ""
	if identity != nil {
		userID = identity.ID
	}
	s.auditLog(r.Context(), audit.ActionAccessDenied, userID, map[string]any{
		"path":        r.URL.Path,
		"method":      r.Method,
		"requirement": d.Requirement,
	})
	writeForbidden(w, fmt.Sprintf("requires %s", d.Requirement))
	return false
}

// createUserRequest is the POST /users body. The password hash is
// produced upstream; this service stores and compares hashes but never
// derives them.
type createUserRequest struct {
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

// updateUserRequest is the PATCH /users/{id} body. Nil fields are left
// unchanged.
type updateUserRequest struct {
	DisplayName  *string `json:"display_name"`
	Role         *string `json:"role"`
	IsActive     *bool   `json:"is_active"`
	PasswordHash *string `json:"password_hash"`
}

// handleListUsers returns all accounts. Admin only.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if !s.authorize(w, r, auth.RequireRole(identity, auth.RoleSystemAdmin)) {
		return
	}

	accounts, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error("user list failed", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": accounts,
		"total": len(accounts),
	})
}

// handleCreateUser provisions a new account. Admin only.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if !s.authorize(w, r, auth.RequireRole(identity, auth.RoleSystemAdmin)) {
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.PasswordHash == "" {
		writeBadRequest(w, "email and password_hash are required")
		return
	}
	if !auth.IsValidRole(auth.Role(req.Role)) {
		writeBadRequest(w, "role must be one of system_admin, normal_user, store_owner")
		return
	}

	account := &auth.Account{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: req.PasswordHash,
		Role:         auth.Role(req.Role),
		IsActive:     true,
	}

	if err := s.users.Create(r.Context(), account); err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			writeConflict(w, "email is already registered")
			return
		}
		s.logger.Error("user creation failed", "error", err)
		writeInternalError(w, "failed to create user")
		return
	}

	s.logger.Info("user created", "user_id", account.ID, "role", account.Role, "created_by", identity.ID)
	writeJSON(w, http.StatusCreated, account)
}

// handleGetUser returns a single account. A caller may fetch their own
// record; fetching anyone else's requires system_admin.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	targetID := chi.URLParam(r, "id")

	if !s.authorize(w, r, auth.RequireSelfOrAdmin(identity, targetID)) {
		return
	}

	account, err := s.users.FindByID(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("user lookup failed", "error", err, "user_id", targetID)
		writeInternalError(w, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// handleUpdateUser applies a partial update to an account. Admin only.
// Deactivating an account takes effect on the target's next verified
// request; already-issued tokens stop working without being revoked.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if !s.authorize(w, r, auth.RequireRole(identity, auth.RoleSystemAdmin)) {
		return
	}

	targetID := chi.URLParam(r, "id")

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Role != nil && !auth.IsValidRole(auth.Role(*req.Role)) {
		writeBadRequest(w, "role must be one of system_admin, normal_user, store_owner")
		return
	}

	account, err := s.users.FindByID(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("user lookup failed", "error", err, "user_id", targetID)
		writeInternalError(w, "failed to update user")
		return
	}

	if req.DisplayName != nil {
		account.DisplayName = *req.DisplayName
	}
	if req.Role != nil {
		account.Role = auth.Role(*req.Role)
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	if req.PasswordHash != nil {
		account.PasswordHash = *req.PasswordHash
	}

	if err := s.users.Update(r.Context(), account); err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("user update failed", "error", err, "user_id", targetID)
		writeInternalError(w, "failed to update user")
		return
	}

	s.logger.Info("user updated", "user_id", targetID, "updated_by", identity.ID)
	writeJSON(w, http.StatusOK, account)
}
