package events

import "time"

// Kind identifies an event type on the bus.
type Kind string

// Event kinds.
const (
	KindSystemStateChanged  Kind = "system_state_changed"
	KindApplianceChanged    Kind = "appliance_changed"
	KindRoomRefresh         Kind = "room_refresh"
	KindSecurityModeChanged Kind = "security_mode_changed"
	KindAutoLockArmed       Kind = "autolock_armed"
	KindAutoLockCancelled   Kind = "autolock_cancelled"
	KindAutoLockExpired     Kind = "autolock_expired"
	KindToast               Kind = "toast"
)

// Event is implemented by every payload type in this package.
type Event interface {
	Kind() Kind
}

// SystemStateChanged signals that some system state was mutated and
// cross-system reconciliation should run for the user.
type SystemStateChanged struct {
	UserID string `json:"user_id"`
	Source string `json:"source"`
}

// ApplianceChanged is published after an appliance inside a room is
// persisted with a new status.
type ApplianceChanged struct {
	UserID      string `json:"user_id"`
	RoomID      string `json:"room_id"`
	ApplianceID string `json:"appliance_id"`
	Status      bool   `json:"status"`
}

// RoomRefresh asks UI surfaces showing the room to reload it.
type RoomRefresh struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
}

// SecurityModeChanged is published when a security system switches
// between home and away.
type SecurityModeChanged struct {
	UserID   string `json:"user_id"`
	SystemID string `json:"system_id"`
	Mode     string `json:"mode"`
}

// AutoLockArmed is published when the auto-lock countdown starts.
type AutoLockArmed struct {
	UserID    string        `json:"user_id"`
	Duration  time.Duration `json:"duration"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// AutoLockCancelled is published when an armed countdown is cancelled.
type AutoLockCancelled struct {
	UserID string `json:"user_id"`
}

// AutoLockExpired is published when a countdown elapses, just before the
// shutdown runs.
type AutoLockExpired struct {
	UserID string `json:"user_id"`
}

// ToastVariant selects how a toast is rendered.
type ToastVariant string

// Toast variants.
const (
	ToastDefault     ToastVariant = "default"
	ToastDestructive ToastVariant = "destructive"
)

// Toast is a fire-and-forget user notification rendered by connected
// clients. Action, when set, names a client-side action button such as
// "cancel_autolock".
type Toast struct {
	UserID      string        `json:"user_id,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Variant     ToastVariant  `json:"variant,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Action      string        `json:"action,omitempty"`
}

func (SystemStateChanged) Kind() Kind  { return KindSystemStateChanged }
func (ApplianceChanged) Kind() Kind    { return KindApplianceChanged }
func (RoomRefresh) Kind() Kind         { return KindRoomRefresh }
func (SecurityModeChanged) Kind() Kind { return KindSecurityModeChanged }
func (AutoLockArmed) Kind() Kind       { return KindAutoLockArmed }
func (AutoLockCancelled) Kind() Kind   { return KindAutoLockCancelled }
func (AutoLockExpired) Kind() Kind     { return KindAutoLockExpired }
func (Toast) Kind() Kind               { return KindToast }
