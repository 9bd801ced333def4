package autolock

import (
	"context"
	"fmt"
	"slices"

	"github.com/nerrad567/gray-logic-home/internal/audit"
	"github.com/nerrad567/gray-logic-home/internal/events"
	"github.com/nerrad567/gray-logic-home/internal/room"
)

// Shutdown switches off every appliance of userID that is on and not
// excepted, room by room. Each changed room is persisted before its child
// devices are commanded; device failures are logged and skipped. A
// repository error stops the run, leaves rooms already written as they
// are and publishes a failure toast.
//
// Shutdown is what the countdown runs on expiry; it may also be called
// directly.
func (s *Service) Shutdown(ctx context.Context, userID string) (*Result, error) {
	res, err := s.shutdown(ctx, userID)
	failed := err != nil

	if s.deps.Telemetry != nil {
		s.deps.Telemetry.WriteAutoLockShutdown(userID, res.DevicesOff, len(res.RoomsChanged), failed)
	}
	details := map[string]any{"devices_off": res.DevicesOff, "rooms_changed": res.RoomsChanged}
	if failed {
		details["error"] = err.Error()
	}
	s.deps.Audit.Record(ctx, audit.Entry{
		Action:     audit.ActionAutoLockShutdown,
		EntityType: "home",
		UserID:     userID,
		Source:     audit.SourceAutoLock,
		Details:    details,
	})

	if failed {
		s.publish(events.Toast{
			UserID:      userID,
			Title:       "Auto-lock failed",
			Description: "Some devices could not be turned off.",
			Variant:     events.ToastDestructive,
		})
		return res, fmt.Errorf("%w: %w", ErrShutdownFailed, err)
	}

	for _, roomID := range res.RoomsChanged {
		s.publish(events.RoomRefresh{UserID: userID, RoomID: roomID})
	}
	s.publish(events.Toast{
		UserID:      userID,
		Title:       summary(res.DevicesOff),
		Description: "Auto-lock has secured your home.",
		Variant:     events.ToastDefault,
	})
	if len(res.RoomsChanged) > 0 {
		s.publish(events.SystemStateChanged{UserID: userID, Source: "autolock"})
	}

	s.deps.Logger.Info("auto-lock shutdown complete",
		"user_id", userID, "devices_off", res.DevicesOff, "rooms_changed", len(res.RoomsChanged))
	return res, nil
}

func (s *Service) shutdown(ctx context.Context, userID string) (*Result, error) {
	res := &Result{RoomsChanged: []string{}}

	exceptions, err := s.deps.Settings.ShutdownExceptions(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("loading shutdown exceptions: %w", err)
	}
	rooms, err := s.deps.Rooms.List(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("listing rooms: %w", err)
	}

	for i := range rooms {
		rm := &rooms[i]
		var devices []string
		turnedOff := 0
		for j := range rm.Appliances {
			app := &rm.Appliances[j]
			if !app.Status || excepted(app, exceptions) {
				continue
			}
			app.Status = false
			turnedOff++
			if app.ChildDeviceID != nil {
				devices = append(devices, *app.ChildDeviceID)
			}
		}
		if turnedOff == 0 {
			continue
		}

		if err := s.deps.Rooms.Update(ctx, rm); err != nil {
			return res, fmt.Errorf("saving room %s: %w", rm.ID, err)
		}
		res.DevicesOff += turnedOff
		res.RoomsChanged = append(res.RoomsChanged, rm.ID)

		if s.deps.Mirror == nil {
			continue
		}
		for _, deviceID := range devices {
			if err := s.deps.Mirror.SetPower(ctx, userID, deviceID, false); err != nil {
				s.deps.Logger.Warn("auto-lock: child device update failed",
					"user_id", userID, "room_id", rm.ID, "device_id", deviceID, "error", err)
			}
		}
	}
	return res, nil
}

// excepted reports whether the appliance, or the device it mirrors, is on
// the exception list.
func excepted(app *room.Appliance, exceptions []string) bool {
	if slices.Contains(exceptions, app.ID) {
		return true
	}
	return app.ChildDeviceID != nil && slices.Contains(exceptions, *app.ChildDeviceID)
}

func summary(n int) string {
	if n == 1 {
		return "1 device turned off"
	}
	return fmt.Sprintf("%d devices turned off", n)
}
