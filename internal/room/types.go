package room

import (
	"slices"
	"time"
)

// ApplianceType categorises an appliance.
type ApplianceType string

// Appliance types.
const (
	TypeLighting      ApplianceType = "lighting"
	TypeSocket        ApplianceType = "socket"
	TypeClimate       ApplianceType = "climate"
	TypeSmartShading  ApplianceType = "smart_shading"
	TypeEntertainment ApplianceType = "entertainment"
	TypeAppliance     ApplianceType = "appliance"
)

// ValidApplianceTypes lists every accepted ApplianceType.
var ValidApplianceTypes = []ApplianceType{
	TypeLighting, TypeSocket, TypeClimate, TypeSmartShading, TypeEntertainment, TypeAppliance,
}

// Appliance is a controllable item inside a room. For smart_shading
// appliances Status true means the window covering is open.
type Appliance struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Type          ApplianceType `json:"type"`
	Status        bool          `json:"status"`
	Intensity     *int          `json:"intensity,omitempty"`
	ColorTint     *string       `json:"color_tint,omitempty"`
	PowerUsage    *float64      `json:"power_usage,omitempty"`
	ChildDeviceID *string       `json:"child_device_id,omitempty"`
}

// Room is a named space in the home with its appliances.
type Room struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Name       string      `json:"name"`
	Appliances []Appliance `json:"appliances"`
	Occupied   bool        `json:"occupied"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Appliance returns a pointer to the appliance with id, for in-place edits.
func (r *Room) Appliance(id string) (*Appliance, bool) {
	for i := range r.Appliances {
		if r.Appliances[i].ID == id {
			return &r.Appliances[i], true
		}
	}
	return nil, false
}

// DeepCopy returns a copy that shares no memory with r.
func (r *Room) DeepCopy() *Room {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Appliances = make([]Appliance, len(r.Appliances))
	for i, a := range r.Appliances {
		cp.Appliances[i] = a.clone()
	}
	return &cp
}

func (a Appliance) clone() Appliance {
	if a.Intensity != nil {
		v := *a.Intensity
		a.Intensity = &v
	}
	if a.ColorTint != nil {
		v := *a.ColorTint
		a.ColorTint = &v
	}
	if a.PowerUsage != nil {
		v := *a.PowerUsage
		a.PowerUsage = &v
	}
	if a.ChildDeviceID != nil {
		v := *a.ChildDeviceID
		a.ChildDeviceID = &v
	}
	return a
}

// IsValidApplianceType reports whether t is a known appliance type.
func IsValidApplianceType(t ApplianceType) bool {
	return slices.Contains(ValidApplianceTypes, t)
}
