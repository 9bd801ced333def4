package autolock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/audit"
	"github.com/nerrad567/gray-logic-home/internal/events"
	"github.com/nerrad567/gray-logic-home/internal/room"
)

const (
	// DefaultDelay is the countdown between arming and shutdown.
	DefaultDelay = 90 * time.Second

	shutdownTimeout = 30 * time.Second

	// ToastActionCancel is the toast action that cancels the countdown.
	ToastActionCancel = "cancel_autolock"
)

// State is the service state.
type State string

// Service states.
const (
	Idle  State = "idle"
	Armed State = "armed"
)

// RoomStore lists and persists rooms.
type RoomStore interface {
	List(ctx context.Context, userID string) ([]room.Room, error)
	Update(ctx context.Context, rm *room.Room) error
}

// SettingsSource supplies the per-user auto-lock settings.
type SettingsSource interface {
	ShutdownExceptions(ctx context.Context, userID string) ([]string, error)
	AutoLockEnabled(ctx context.Context, userID string) (bool, error)
}

// DeviceMirror powers child devices on or off.
type DeviceMirror interface {
	SetPower(ctx context.Context, userID, deviceID string, on bool) error
}

// Telemetry records shutdown outcomes.
type Telemetry interface {
	WriteAutoLockShutdown(userID string, devicesOff, roomsChanged int, failed bool)
}

// EventPublisher is the subset of the event bus the service needs.
type EventPublisher interface {
	Publish(ev events.Event)
}

// Logger is the logging interface used by the service.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// timer is the part of *time.Timer the service uses.
type timer interface {
	Stop() bool
}

// Deps holds the collaborators of a Service. Rooms, Settings and Events
// are required; the rest may be nil.
type Deps struct {
	Rooms     RoomStore
	Settings  SettingsSource
	Events    EventPublisher
	Mirror    DeviceMirror
	Telemetry Telemetry
	Audit     *audit.Recorder
	Logger    Logger
}

// Status is a snapshot of the countdown.
type Status struct {
	State     State         `json:"state"`
	Armed     bool          `json:"armed"`
	UserID    string        `json:"user_id,omitempty"`
	Remaining time.Duration `json:"remaining"`
	ExpiresAt time.Time     `json:"expires_at,omitzero"`
}

// Result summarises one shutdown run.
type Result struct {
	DevicesOff   int      `json:"devices_off"`
	RoomsChanged []string `json:"rooms_changed"`
}

// Service owns the auto-lock countdown.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Expiry runs on its own
//     goroutine.
type Service struct {
	deps  Deps
	delay time.Duration

	mu        sync.Mutex
	state     State
	userID    string
	expiresAt time.Time
	timer     timer
	gen       uint64

	afterFunc func(d time.Duration, f func()) timer
	now       func() time.Time
}

// New creates an idle Service. A non-positive delay uses DefaultDelay.
func New(delay time.Duration, deps Deps) *Service {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if deps.Logger == nil {
		deps.Logger = noopLogger{}
	}
	return &Service{
		deps:  deps,
		delay: delay,
		state: Idle,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
	}
}

// Delay returns the configured countdown.
func (s *Service) Delay() time.Duration {
	return s.delay
}

// Start wires the service to security mode changes: away arms the
// countdown when the user has auto-lock enabled, home cancels the user's
// own countdown.
func (s *Service) Start(bus *events.Bus) (dispose func()) {
	return events.On(bus, func(ev events.SecurityModeChanged) {
		switch ev.Mode {
		case "away":
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			enabled, err := s.deps.Settings.AutoLockEnabled(ctx, ev.UserID)
			if err != nil {
				s.deps.Logger.Error("reading auto-lock setting", "user_id", ev.UserID, "error", err)
				return
			}
			if enabled {
				s.Arm(ev.UserID)
			}
		case "home":
			s.CancelFor(ev.UserID)
		}
	})
}

// Arm starts the countdown for userID, discarding any countdown already
// running. When that countdown belonged to another user, they are told it
// was cancelled.
func (s *Service) Arm(userID string) {
	s.mu.Lock()
	var replaced string
	if s.state == Armed && s.userID != userID {
		replaced = s.userID
	}
	s.stopLocked()
	s.gen++
	gen := s.gen
	s.state = Armed
	s.userID = userID
	s.expiresAt = s.now().Add(s.delay)
	expiresAt := s.expiresAt
	s.timer = s.afterFunc(s.delay, func() { s.expire(gen) })
	s.mu.Unlock()

	if replaced != "" {
		s.deps.Logger.Info("auto-lock countdown replaced", "user_id", replaced, "by", userID)
		s.publish(events.AutoLockCancelled{UserID: replaced})
	}
	s.deps.Logger.Info("auto-lock armed", "user_id", userID, "delay", s.delay)
	s.publish(events.AutoLockArmed{UserID: userID, Duration: s.delay, ExpiresAt: expiresAt})
	s.publish(events.Toast{
		UserID:      userID,
		Title:       "Auto-lock activated",
		Description: fmt.Sprintf("Devices will turn off in %d seconds.", int(s.delay.Seconds())),
		Variant:     events.ToastDefault,
		Duration:    s.delay,
		Action:      ToastActionCancel,
	})
}

// Cancel stops a running countdown whoever armed it. It reports whether one
// was running; cancelling while idle does nothing.
func (s *Service) Cancel() bool {
	return s.cancelIf(func(string) bool { return true })
}

// CancelFor stops the countdown only when it was armed for userID.
func (s *Service) CancelFor(userID string) bool {
	return s.cancelIf(func(armedFor string) bool { return armedFor == userID })
}

func (s *Service) cancelIf(match func(userID string) bool) bool {
	s.mu.Lock()
	if s.state != Armed || !match(s.userID) {
		s.mu.Unlock()
		return false
	}
	s.stopLocked()
	s.gen++
	userID := s.userID
	s.resetLocked()
	s.mu.Unlock()

	s.deps.Logger.Info("auto-lock cancelled", "user_id", userID)
	s.publish(events.AutoLockCancelled{UserID: userID})
	s.publish(events.Toast{UserID: userID, Title: "Auto-lock cancelled", Variant: events.ToastDefault})
	return true
}

// Status returns the current state. While armed, Remaining is always the
// full configured delay.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Armed {
		return Status{State: Idle}
	}
	return Status{
		State:     Armed,
		Armed:     true,
		UserID:    s.userID,
		Remaining: s.delay,
		ExpiresAt: s.expiresAt,
	}
}

// expire runs when a countdown elapses. A countdown that was cancelled or
// replaced after its timer fired is ignored.
func (s *Service) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != Armed {
		s.mu.Unlock()
		return
	}
	userID := s.userID
	s.resetLocked()
	s.mu.Unlock()

	s.publish(events.AutoLockExpired{UserID: userID})

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if _, err := s.Shutdown(ctx, userID); err != nil {
		s.deps.Logger.Error("auto-lock shutdown failed", "user_id", userID, "error", err)
	}
}

func (s *Service) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Service) resetLocked() {
	s.state = Idle
	s.userID = ""
	s.expiresAt = time.Time{}
	s.timer = nil
}

func (s *Service) publish(ev events.Event) {
	if s.deps.Events != nil {
		s.deps.Events.Publish(ev)
	}
}
