package api

import (
	"net/http"

	"github.com/nerrad567/gray-logic-home/internal/autolock"
)

// handleAutoLockStatus returns the caller's countdown. A countdown armed
// for another user reads as idle.
func (s *Server) handleAutoLockStatus(w http.ResponseWriter, r *http.Request) {
	st := s.autolock.Status()
	if st.UserID != requestUser(r) {
		st = autolock.Status{State: autolock.Idle}
	}
	writeJSON(w, http.StatusOK, st)
}

// handleCancelAutoLock cancels the caller's countdown. Cancelling while
// idle, or while armed for someone else, succeeds with cancelled=false.
func (s *Server) handleCancelAutoLock(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": s.autolock.CancelFor(requestUser(r))})
}
