package api

import (
	"net/http"
	"strconv"

	"github.com/ratewise/ratewise-core/internal/audit"
	"github.com/ratewise/ratewise-core/internal/auth"
)

// handleListAudit returns the audit trail, newest first. Admin only.
//
// Query parameters: action, user_id, limit, offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if !s.authorize(w, r, auth.RequireRole(identity, auth.RoleSystemAdmin)) {
		return
	}

	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, "audit_unavailable",
			"audit logging is not enabled on this node")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action: q.Get("action"),
		UserID: q.Get("user_id"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("audit list failed", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
