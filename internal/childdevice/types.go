package childdevice

import (
	"maps"
	"time"
)

// State keys and values shared with device firmware.
const (
	StatePower = "power"
	PowerOn    = "on"
	PowerOff   = "off"
)

// Device is a physical device mirror.
type Device struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Name         string         `json:"name"`
	DeviceTypeID string         `json:"device_type_id"`
	Protocol     string         `json:"protocol"`
	State        map[string]any `json:"state"`
	Online       bool           `json:"online"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// PowerState returns the device's power state, or "" when unknown.
func (d *Device) PowerState() string {
	v, _ := d.State[StatePower].(string) //nolint:errcheck // type assertion, absent means ""
	return v
}

// Command is the MQTT payload sent to a device.
type Command struct {
	Command    string         `json:"command"`
	DeviceID   string         `json:"device_id"`
	Parameters map[string]any `json:"parameters,omitempty"`
	IssuedAt   time.Time      `json:"issued_at"`
}

func mergeState(dst, patch map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(patch))
	maps.Copy(out, dst)
	maps.Copy(out, patch)
	return out
}
