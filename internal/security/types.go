package security

import "time"

// LockStatus is the physical lock state.
type LockStatus string

// Lock states.
const (
	Locked   LockStatus = "locked"
	Unlocked LockStatus = "unlocked"
)

// Mode is the occupancy mode of the home.
type Mode string

// Security modes.
const (
	ModeHome Mode = "home"
	ModeAway Mode = "away"
)

// System is a lock/alarm installation.
type System struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	Name               string     `json:"name"`
	LockStatus         LockStatus `json:"lock_status"`
	SecurityMode       Mode       `json:"security_mode"`
	ShutdownExceptions []string   `json:"shutdown_exceptions"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
