package safety

import "time"

// SystemType is the kind of safety system.
type SystemType string

// Safety system types.
const (
	TypeSmokeDetector   SystemType = "smoke_detector"
	TypeFireSuppression SystemType = "fire_suppression"
	TypeWindowRain      SystemType = "window_rain"
	TypeTemperature     SystemType = "temperature"
)

// Status is the reported state of a safety system.
type Status string

// Safety statuses.
const (
	StatusSafe              Status = "safe"
	StatusAlert             Status = "alert"
	StatusActive            Status = "active"
	StatusSuppressionActive Status = "suppression_active"
	StatusUnknown           Status = "unknown"
)

// Well-known sensor reading keys.
const (
	ReadingSmokeLevel    = "smoke_level"
	ReadingFlameDetected = "flame_detected"
	ReadingTemperature   = "temperature"
	ReadingWindowStatus  = "window_status"
)

// Window status values stored under ReadingWindowStatus.
const (
	WindowOpen   = "open"
	WindowClosed = "closed"
)

// System is a safety system installed in a room.
type System struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	RoomName       string         `json:"room_name"`
	SystemType     SystemType     `json:"system_type"`
	Status         Status         `json:"status"`
	SensorReadings map[string]any `json:"sensor_readings"`
	ChildDeviceID  *string        `json:"child_device_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// WindowStatus returns the stored window_status reading, or "" if absent.
func (s *System) WindowStatus() string {
	v, _ := s.SensorReadings[ReadingWindowStatus].(string) //nolint:errcheck // type assertion, absent means ""
	return v
}
