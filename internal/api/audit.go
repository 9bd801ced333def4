package api

import (
	"net/http"

	"github.com/nerrad567/gray-logic-home/internal/audit"
)

const (
	defaultAuditLimit = 50
)

// auditQuery holds the audit log query parameters.
type auditQuery struct {
	Action     string `json:"action" validate:"omitempty,oneof=lock unlock mode_change autolock_shutdown plan_change"`
	EntityType string `json:"entity_type" validate:"omitempty,max=64"`
	EntityID   string `json:"entity_id" validate:"omitempty,max=64"`
	Limit      int    `json:"limit" validate:"min=0,max=200"`
	Offset     int    `json:"offset" validate:"min=0"`
}

// handleListAuditLogs returns the caller's audit entries, newest first,
// filtered by ?action=, ?entity_type=, ?entity_id= and paged with ?limit=
// and ?offset=.
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit log not configured")
		return
	}

	q := r.URL.Query()
	limit, ok := queryInt(w, r, "limit", defaultAuditLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	params := auditQuery{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Limit:      limit,
		Offset:     offset,
	}
	if !validateQuery(w, r, &params) {
		return
	}

	result, err := s.auditRepo.List(r.Context(), audit.Filter{
		UserID:     requestUser(r),
		Action:     params.Action,
		EntityType: params.EntityType,
		EntityID:   params.EntityID,
		Limit:      params.Limit,
		Offset:     params.Offset,
	})
	if err != nil {
		s.writeServiceError(w, err, "failed to list audit logs")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
