package view

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-home/internal/childdevice"
	"github.com/nerrad567/gray-logic-home/internal/events"
	"github.com/nerrad567/gray-logic-home/internal/notification"
	"github.com/nerrad567/gray-logic-home/internal/realtime"
	"github.com/nerrad567/gray-logic-home/internal/safety"
)

// ChildDeviceLister lists child devices.
type ChildDeviceLister interface {
	List(ctx context.Context, userID string) ([]childdevice.Device, error)
	ListByType(ctx context.Context, userID, deviceTypeID string) ([]childdevice.Device, error)
}

// ChildDevices builds a live list of the user's child devices. When
// deviceTypeID is set only devices of that type are listed and watched.
// Devices going offline or online, or switching power, raise a toast.
func ChildDevices(feed Subscriber, repo ChildDeviceLister, userID, deviceTypeID string, opts Options[childdevice.Device]) *List[childdevice.Device] {
	filter := realtime.Eq("user_id", userID)
	if deviceTypeID != "" {
		filter = filter.And("device_type_id", deviceTypeID)
	}
	opts.Name = "child_devices"
	opts.Watch = []Watch{{Table: childdevice.Table, Filter: filter}}
	opts.Fetch = func(ctx context.Context) ([]childdevice.Device, error) {
		if deviceTypeID != "" {
			return repo.ListByType(ctx, userID, deviceTypeID)
		}
		return repo.List(ctx, userID)
	}
	opts.Key = func(d childdevice.Device) string { return d.ID }
	opts.Transition = deviceTransition
	return New(feed, opts)
}

func deviceTransition(prev, cur childdevice.Device) (events.Toast, bool) {
	switch {
	case prev.Online != cur.Online:
		state, variant := "offline", events.ToastDestructive
		if cur.Online {
			state, variant = "online", events.ToastDefault
		}
		return events.Toast{UserID: cur.UserID, Title: fmt.Sprintf("%s is %s", cur.Name, state), Variant: variant}, true
	case prev.PowerState() != cur.PowerState() && cur.PowerState() != "":
		return events.Toast{UserID: cur.UserID, Title: fmt.Sprintf("%s turned %s", cur.Name, cur.PowerState()), Variant: events.ToastDefault}, true
	}
	return events.Toast{}, false
}

// NotificationLister lists notifications.
type NotificationLister interface {
	List(ctx context.Context, userID string, limit int) ([]notification.Notification, error)
}

// Notifications builds a live list of the user's latest notifications.
// Read receipts are watched too so the read flags stay current.
func Notifications(feed Subscriber, repo NotificationLister, userID string, limit int, opts Options[notification.Notification]) *List[notification.Notification] {
	opts.Name = "notifications"
	opts.Watch = []Watch{
		{Table: notification.Table, Filter: realtime.Eq("user_id", userID)},
		{Table: notification.ReadsTable, Filter: realtime.Eq("user_id", userID)},
	}
	opts.Fetch = func(ctx context.Context) ([]notification.Notification, error) {
		return repo.List(ctx, userID, limit)
	}
	return New(feed, opts)
}

// SafetyLister lists safety systems.
type SafetyLister interface {
	List(ctx context.Context, userID string) ([]safety.System, error)
}

// SafetySystems builds a live list of the user's safety systems. A status
// change raises a toast naming the system and its new status.
func SafetySystems(feed Subscriber, repo SafetyLister, userID string, opts Options[safety.System]) *List[safety.System] {
	opts.Name = "safety_systems"
	opts.Watch = []Watch{{Table: safety.Table, Filter: realtime.Eq("user_id", userID)}}
	opts.Fetch = func(ctx context.Context) ([]safety.System, error) {
		return repo.List(ctx, userID)
	}
	opts.Key = func(s safety.System) string { return s.ID }
	opts.Transition = func(prev, cur safety.System) (events.Toast, bool) {
		if prev.Status == cur.Status {
			return events.Toast{}, false
		}
		variant := events.ToastDefault
		if cur.Status == safety.StatusAlert || cur.Status == safety.StatusSuppressionActive {
			variant = events.ToastDestructive
		}
		return events.Toast{
			UserID:      cur.UserID,
			Title:       fmt.Sprintf("%s: %s", cur.RoomName, cur.Status),
			Description: string(cur.SystemType),
			Variant:     variant,
		}, true
	}
	return New(feed, opts)
}
