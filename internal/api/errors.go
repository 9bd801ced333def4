package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-home/internal/childdevice"
	"github.com/nerrad567/gray-logic-home/internal/functions"
	"github.com/nerrad567/gray-logic-home/internal/notification"
	"github.com/nerrad567/gray-logic-home/internal/room"
	"github.com/nerrad567/gray-logic-home/internal/safety"
	"github.com/nerrad567/gray-logic-home/internal/security"
	"github.com/nerrad567/gray-logic-home/internal/settings"
	"github.com/nerrad567/gray-logic-home/internal/voice"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeUnavailable    = "service_unavailable"
	ErrCodeUpstream       = "upstream_error"
	ErrCodePaymentPending = "payment_not_verified"
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

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeServiceError maps a domain error to a response. Errors without a
// mapping are logged and reported as 500 with fallback as the message.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrApplianceNotFound),
		errors.Is(err, safety.ErrSystemNotFound),
		errors.Is(err, security.ErrSystemNotFound),
		errors.Is(err, childdevice.ErrDeviceNotFound),
		errors.Is(err, notification.ErrNotificationNotFound),
		errors.Is(err, voice.ErrNoMatch):
		writeNotFound(w, err.Error())
	case errors.Is(err, room.ErrRoomExists),
		errors.Is(err, safety.ErrSystemExists),
		errors.Is(err, security.ErrSystemExists),
		errors.Is(err, childdevice.ErrDeviceExists),
		errors.Is(err, voice.ErrCommandExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, room.ErrInvalidRoom),
		errors.Is(err, room.ErrInvalidAppliance),
		errors.Is(err, safety.ErrInvalidSystem),
		errors.Is(err, security.ErrInvalidSystem),
		errors.Is(err, childdevice.ErrInvalidDevice),
		errors.Is(err, settings.ErrInvalidSettings),
		errors.Is(err, voice.ErrInvalidCommand):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, settings.ErrPaymentNotVerified):
		writeError(w, http.StatusPaymentRequired, ErrCodePaymentPending, err.Error())
	case errors.Is(err, functions.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	case errors.Is(err, functions.ErrFunctionFailed):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
	default:
		s.logger.Error(fallback, "error", err)
		writeInternalError(w, fallback)
	}
}
