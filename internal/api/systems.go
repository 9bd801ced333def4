package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-home/internal/childdevice"
	"github.com/nerrad567/gray-logic-home/internal/safety"
	"github.com/nerrad567/gray-logic-home/internal/security"
)

type securityModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=home away"`
}

type lockRequest struct {
	LockStatus string `json:"lock_status" validate:"required,oneof=locked unlocked"`
}

type createSecurityRequest struct {
	Name               string   `json:"name" validate:"required,max=100"`
	LockStatus         string   `json:"lock_status" validate:"omitempty,oneof=locked unlocked"`
	SecurityMode       string   `json:"security_mode" validate:"omitempty,oneof=home away"`
	ShutdownExceptions []string `json:"shutdown_exceptions" validate:"dive,required"`
}

type createSafetyRequest struct {
	RoomName       string         `json:"room_name" validate:"required,max=100"`
	SystemType     string         `json:"system_type" validate:"required,oneof=smoke_detector fire_suppression window_rain temperature"`
	Status         string         `json:"status" validate:"omitempty,oneof=safe alert active suppression_active unknown"`
	SensorReadings map[string]any `json:"sensor_readings"`
	ChildDeviceID  *string        `json:"child_device_id" validate:"omitempty,min=1"`
}

// Device IDs are chosen by the protocol bridge that reports the device's
// state, so the client may supply one.
type createDeviceRequest struct {
	ID           string         `json:"id" validate:"omitempty,max=64,excludesall=/+#"`
	Name         string         `json:"name" validate:"required,max=100"`
	DeviceTypeID string         `json:"device_type_id" validate:"required,max=64"`
	Protocol     string         `json:"protocol" validate:"omitempty,max=32,excludesall=/+#"`
	State        map[string]any `json:"state"`
}

// handleListSafety returns the caller's safety systems, optionally
// filtered by ?type=.
func (s *Server) handleListSafety(w http.ResponseWriter, r *http.Request) {
	var (
		systems []safety.System
		err     error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		systems, err = s.safety.ListByType(r.Context(), requestUser(r), safety.SystemType(t))
	} else {
		systems, err = s.safety.List(r.Context(), requestUser(r))
	}
	if err != nil {
		s.writeServiceError(w, err, "failed to list safety systems")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"systems": systems, "count": len(systems)})
}

// handleGetSafety returns one safety system.
func (s *Server) handleGetSafety(w http.ResponseWriter, r *http.Request) {
	sys, err := s.safety.Get(r.Context(), requestUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to get safety system")
		return
	}
	writeJSON(w, http.StatusOK, sys)
}

// handleCreateSafety installs a safety system. A missing status starts
// as unknown until the first sensor report.
func (s *Server) handleCreateSafety(w http.ResponseWriter, r *http.Request) {
	var req createSafetyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sys := &safety.System{
		ID:             "safety-" + uuid.NewString()[:8],
		UserID:         requestUser(r),
		RoomName:       req.RoomName,
		SystemType:     safety.SystemType(req.SystemType),
		Status:         safety.Status(req.Status),
		SensorReadings: req.SensorReadings,
		ChildDeviceID:  req.ChildDeviceID,
	}
	if sys.Status == "" {
		sys.Status = safety.StatusUnknown
	}
	if err := s.safety.Create(r.Context(), sys); err != nil {
		s.writeServiceError(w, err, "failed to create safety system")
		return
	}
	writeJSON(w, http.StatusCreated, sys)
}

// handleDeleteSafety removes a safety system.
func (s *Server) handleDeleteSafety(w http.ResponseWriter, r *http.Request) {
	if err := s.safety.Delete(r.Context(), requestUser(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err, "failed to delete safety system")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateSecurity installs a security system, unlocked and in home
// mode unless the request says otherwise.
func (s *Server) handleCreateSecurity(w http.ResponseWriter, r *http.Request) {
	var req createSecurityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sys := &security.System{
		ID:                 "sec-" + uuid.NewString()[:8],
		UserID:             requestUser(r),
		Name:               req.Name,
		LockStatus:         security.LockStatus(req.LockStatus),
		SecurityMode:       security.Mode(req.SecurityMode),
		ShutdownExceptions: req.ShutdownExceptions,
	}
	if err := s.security.Repository().Create(r.Context(), sys); err != nil {
		s.writeServiceError(w, err, "failed to create security system")
		return
	}
	writeJSON(w, http.StatusCreated, sys)
}

// handleDeleteSecurity removes a security system.
func (s *Server) handleDeleteSecurity(w http.ResponseWriter, r *http.Request) {
	if err := s.security.Repository().Delete(r.Context(), requestUser(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err, "failed to delete security system")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListSecurity returns the caller's security systems.
func (s *Server) handleListSecurity(w http.ResponseWriter, r *http.Request) {
	systems, err := s.security.Repository().List(r.Context(), requestUser(r))
	if err != nil {
		s.writeServiceError(w, err, "failed to list security systems")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"systems": systems, "count": len(systems)})
}

// handleSetSecurityMode switches a security system between home and away.
// Switching to away arms auto-lock through the event bus.
func (s *Server) handleSetSecurityMode(w http.ResponseWriter, r *http.Request) {
	var req securityModeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sys, err := s.security.SetMode(r.Context(), requestUser(r), chi.URLParam(r, "id"), security.Mode(req.Mode))
	if err != nil {
		s.writeServiceError(w, err, "failed to set security mode")
		return
	}
	writeJSON(w, http.StatusOK, sys)
}

// handleSetLock locks or unlocks a security system.
func (s *Server) handleSetLock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	sys, err := s.security.SetLock(r.Context(), requestUser(r), chi.URLParam(r, "id"), security.LockStatus(req.LockStatus))
	if err != nil {
		s.writeServiceError(w, err, "failed to set lock status")
		return
	}
	writeJSON(w, http.StatusOK, sys)
}

// handleListDevices returns the caller's child devices, optionally
// filtered by ?type= (device type ID).
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	var (
		devices []childdevice.Device
		err     error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		devices, err = s.devices.ListByType(r.Context(), requestUser(r), t)
	} else {
		devices, err = s.devices.List(r.Context(), requestUser(r))
	}
	if err != nil {
		s.writeServiceError(w, err, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleCreateDevice registers a child device so its state reports are
// ingested and appliances can mirror into it.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	d := &childdevice.Device{
		ID:           req.ID,
		UserID:       requestUser(r),
		Name:         req.Name,
		DeviceTypeID: req.DeviceTypeID,
		Protocol:     req.Protocol,
		State:        req.State,
	}
	if d.ID == "" {
		d.ID = "dev-" + uuid.NewString()[:8]
	}
	if err := s.devices.Create(r.Context(), d); err != nil {
		s.writeServiceError(w, err, "failed to create device")
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handleDeleteDevice removes a child device.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.devices.Delete(r.Context(), requestUser(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err, "failed to delete device")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
