package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-home/internal/room"
)

type applianceRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Type          string   `json:"type" validate:"required,oneof=lighting socket climate smart_shading entertainment appliance"`
	Status        bool     `json:"status"`
	Intensity     *int     `json:"intensity" validate:"omitempty,min=0,max=100"`
	ColorTint     *string  `json:"color_tint" validate:"omitempty,max=32"`
	PowerUsage    *float64 `json:"power_usage" validate:"omitempty,min=0"`
	ChildDeviceID *string  `json:"child_device_id"`
}

type createRoomRequest struct {
	Name       string             `json:"name" validate:"required,max=100"`
	Occupied   bool               `json:"occupied"`
	Appliances []applianceRequest `json:"appliances" validate:"dive"`
}

type updateApplianceRequest struct {
	Status    *bool   `json:"status"`
	Intensity *int    `json:"intensity" validate:"omitempty,min=0,max=100"`
	ColorTint *string `json:"color_tint" validate:"omitempty,max=32"`
}

type occupancyRequest struct {
	Occupied bool `json:"occupied"`
}

// handleListRooms returns the caller's rooms.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.Repository().List(r.Context(), requestUser(r))
	if err != nil {
		s.writeServiceError(w, err, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

// handleGetRoom returns one room with its appliances.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := s.rooms.Repository().Get(r.Context(), requestUser(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to get room")
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

// handleCreateRoom creates a room. Room and appliance IDs are assigned by
// the server.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rm := &room.Room{
		UserID:     requestUser(r),
		Name:       req.Name,
		Occupied:   req.Occupied,
		Appliances: make([]room.Appliance, 0, len(req.Appliances)),
	}
	for _, a := range req.Appliances {
		rm.Appliances = append(rm.Appliances, room.Appliance{
			Name:          a.Name,
			Type:          room.ApplianceType(a.Type),
			Status:        a.Status,
			Intensity:     a.Intensity,
			ColorTint:     a.ColorTint,
			PowerUsage:    a.PowerUsage,
			ChildDeviceID: a.ChildDeviceID,
		})
	}

	if err := s.rooms.CreateRoom(r.Context(), rm); err != nil {
		s.writeServiceError(w, err, "failed to create room")
		return
	}
	writeJSON(w, http.StatusCreated, rm)
}

// handleDeleteRoom deletes a room.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.rooms.DeleteRoom(r.Context(), requestUser(r), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err, "failed to delete room")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateAppliance applies a partial change to one appliance.
func (s *Server) handleUpdateAppliance(w http.ResponseWriter, r *http.Request) {
	var req updateApplianceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Status == nil && req.Intensity == nil && req.ColorTint == nil {
		writeBadRequest(w, "at least one of status, intensity or color_tint is required")
		return
	}

	rm, err := s.rooms.UpdateAppliance(r.Context(), requestUser(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "applianceID"),
		room.ApplianceUpdate{Status: req.Status, Intensity: req.Intensity, ColorTint: req.ColorTint})
	if err != nil {
		s.writeServiceError(w, err, "failed to update appliance")
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

// handleSetOccupancy sets the room's occupied flag.
func (s *Server) handleSetOccupancy(w http.ResponseWriter, r *http.Request) {
	var req occupancyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rm, err := s.rooms.SetOccupied(r.Context(), requestUser(r), chi.URLParam(r, "id"), req.Occupied)
	if err != nil {
		s.writeServiceError(w, err, "failed to set occupancy")
		return
	}
	writeJSON(w, http.StatusOK, rm)
}
