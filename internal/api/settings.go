package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-home/internal/settings"
)

// updateSettingsRequest replaces the user-editable settings. The
// subscription plan only changes through payment confirmation.
type updateSettingsRequest struct {
	Security struct {
		AutoLockEnabled    bool     `json:"auto_lock_enabled"`
		ShutdownExceptions []string `json:"shutdown_exceptions" validate:"max=200,dive,required"`
	} `json:"security_settings"`
	PowerSources settings.PowerSources `json:"power_sources"`
	Voice        struct {
		Language string `json:"language" validate:"max=16"`
		Voice    string `json:"voice" validate:"max=64"`
		WakeWord string `json:"wake_word" validate:"max=32"`
	} `json:"voice_settings"`
}

type exceptionRequest struct {
	Excepted bool `json:"excepted"`
}

type confirmPaymentRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// handleGetSettings returns the caller's settings, creating defaults on
// first access.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Get(r.Context(), requestUser(r))
	if err != nil {
		s.writeServiceError(w, err, "failed to get settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleUpdateSettings replaces the caller's editable settings.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	st, err := s.settings.Get(r.Context(), requestUser(r))
	if err != nil {
		s.writeServiceError(w, err, "failed to get settings")
		return
	}
	st.Security = settings.SecuritySettings{
		AutoLockEnabled:    req.Security.AutoLockEnabled,
		ShutdownExceptions: req.Security.ShutdownExceptions,
	}
	if st.Security.ShutdownExceptions == nil {
		st.Security.ShutdownExceptions = []string{}
	}
	st.PowerSources = req.PowerSources
	st.Voice = settings.VoiceSettings{
		Language: req.Voice.Language,
		Voice:    req.Voice.Voice,
		WakeWord: req.Voice.WakeWord,
	}

	if err := s.settings.Update(r.Context(), st); err != nil {
		s.writeServiceError(w, err, "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleSetException adds or removes one appliance from the auto-lock
// shutdown exceptions.
func (s *Server) handleSetException(w http.ResponseWriter, r *http.Request) {
	var req exceptionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	st, err := s.settings.SetException(r.Context(), requestUser(r), chi.URLParam(r, "applianceID"), req.Excepted)
	if err != nil {
		s.writeServiceError(w, err, "failed to update shutdown exceptions")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleConfirmPayment verifies a checkout session and applies the plan
// it paid for. The caller's token is forwarded to the verify function.
func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	st, err := s.settings.ConfirmPayment(r.Context(), requestUser(r), bearerToken(r), req.SessionID)
	if err != nil {
		s.writeServiceError(w, err, "failed to confirm payment")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
