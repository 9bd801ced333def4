package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// defaultNotificationLimit is the page size when ?limit= is absent.
const defaultNotificationLimit = 50

// handleListNotifications returns the caller's latest notifications with
// their read flags.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", defaultNotificationLimit)
	if !ok {
		return
	}
	if limit <= 0 {
		writeBadRequest(w, "limit must be a positive integer")
		return
	}

	list, err := s.notifications.List(r.Context(), requestUser(r), limit)
	if err != nil {
		s.writeServiceError(w, err, "failed to list notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list, "count": len(list)})
}

// handleUnreadCount returns the number of unread notifications.
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.notifications.UnreadCount(r.Context(), requestUser(r))
	if err != nil {
		s.writeServiceError(w, err, "failed to count notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

// handleMarkRead marks one notification read.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.notifications.MarkRead(r.Context(), requestUser(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err, "failed to mark notification read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMarkAllRead marks every notification of the caller read.
func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.notifications.MarkAllRead(r.Context(), requestUser(r))
	if err != nil {
		s.writeServiceError(w, err, "failed to mark notifications read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": n})
}
