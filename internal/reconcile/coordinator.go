package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/events"
	"github.com/nerrad567/gray-logic-home/internal/room"
	"github.com/nerrad567/gray-logic-home/internal/safety"
)

// syncTimeout bounds a sync triggered from the event bus.
const syncTimeout = 10 * time.Second

// RoomLister lists a user's rooms.
type RoomLister interface {
	List(ctx context.Context, userID string) ([]room.Room, error)
}

// SafetyStore reads and writes safety systems.
type SafetyStore interface {
	ListByType(ctx context.Context, userID string, t safety.SystemType) ([]safety.System, error)
	Update(ctx context.Context, s *safety.System) error
}

// Logger is the logging interface used by the coordinator.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Error(string, ...any) {}

// Coordinator reconciles window coverings into window sensors.
type Coordinator struct {
	rooms  RoomLister
	safety SafetyStore
	logger Logger
}

// New creates a Coordinator.
func New(rooms RoomLister, store SafetyStore, logger Logger) *Coordinator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Coordinator{rooms: rooms, safety: store, logger: logger}
}

// Start subscribes the coordinator to SystemStateChanged. Sync failures
// are logged and dropped. The returned function unsubscribes.
func (c *Coordinator) Start(bus *events.Bus) (dispose func()) {
	return events.On(bus, func(ev events.SystemStateChanged) {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		n, err := c.Sync(ctx, ev.UserID)
		if err != nil {
			c.logger.Error("cross-system sync failed", "user_id", ev.UserID, "source", ev.Source, "error", err)
			return
		}
		if n > 0 {
			c.logger.Debug("cross-system sync applied", "user_id", ev.UserID, "writes", n)
		}
	})
}

// Sync writes window_status on every window_rain system whose room holds
// a smart shading appliance with a different state, and returns the
// number of writes. Each write stands alone: a failure leaves earlier
// writes in place.
func (c *Coordinator) Sync(ctx context.Context, userID string) (int, error) {
	rooms, err := c.rooms.List(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("listing rooms: %w", err)
	}
	systems, err := c.safety.ListByType(ctx, userID, safety.TypeWindowRain)
	if err != nil {
		return 0, fmt.Errorf("listing window sensors: %w", err)
	}
	if len(systems) == 0 {
		return 0, nil
	}

	// Derive one target per system before writing so two coverings in one
	// room cannot flip the same sensor back and forth. Any open covering
	// reports the window as open.
	want := make(map[int]string)
	for _, rm := range rooms {
		for _, app := range rm.Appliances {
			if app.Type != room.TypeSmartShading {
				continue
			}
			for i := range systems {
				if !roomMatches(rm.Name, systems[i].RoomName) {
					continue
				}
				if cur, seen := want[i]; !seen || cur == safety.WindowClosed {
					want[i] = WindowStatus(app.Status)
				}
			}
		}
	}

	writes := 0
	for i := range systems {
		status, ok := want[i]
		sys := &systems[i]
		if !ok || sys.WindowStatus() == status {
			continue
		}
		if sys.SensorReadings == nil {
			sys.SensorReadings = make(map[string]any)
		}
		sys.SensorReadings[safety.ReadingWindowStatus] = status
		if err := c.safety.Update(ctx, sys); err != nil {
			return writes, fmt.Errorf("updating safety system %s: %w", sys.ID, err)
		}
		writes++
	}
	return writes, nil
}

// WindowStatus derives the window_status reading from a shading
// appliance's on/off state.
func WindowStatus(open bool) string {
	if open {
		return safety.WindowOpen
	}
	return safety.WindowClosed
}

// roomMatches links a room to a safety system by name, ignoring case.
// Names are free text on both sides, so duplicates fan out and renames
// break the link.
// TODO: switch to safety_systems.child_device_id once appliances and
// window sensors share device IDs.
func roomMatches(roomName, systemRoomName string) bool {
	return strings.EqualFold(roomName, systemRoomName)
}
