package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/childdevice"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-home/internal/notification"
	"github.com/nerrad567/gray-logic-home/internal/safety"
)

// handleTimeout bounds the store work done for one state report.
const handleTimeout = 10 * time.Second

// SmokeAlertLevel is the smoke level at or above which a smoke detector
// reports alert.
const SmokeAlertLevel = 50.0

// StateMessage is the payload bridges publish.
type StateMessage struct {
	DeviceID string         `json:"device_id"`
	Online   *bool          `json:"online,omitempty"`
	State    map[string]any `json:"state"`
}

// DeviceStore is the child device capability ingest needs.
type DeviceStore interface {
	UpdateState(ctx context.Context, id string, patch map[string]any, online bool) (*childdevice.Device, error)
}

// SafetyStore is the safety system capability ingest needs.
type SafetyStore interface {
	ListByChildDevice(ctx context.Context, deviceID string) ([]safety.System, error)
	Update(ctx context.Context, s *safety.System) error
}

// Notifier creates user notifications.
type Notifier interface {
	Create(ctx context.Context, n *notification.Notification) error
}

// Telemetry records safety readings.
type Telemetry interface {
	WriteSafetyReading(systemID, systemType, status string, readings map[string]any)
}

// Subscriber is the MQTT capability Start needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger is the logging interface used by the ingestor.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Deps holds the ingestor's collaborators. Notifier and Telemetry are
// optional.
type Deps struct {
	Devices   DeviceStore
	Safety    SafetyStore
	Notifier  Notifier
	Telemetry Telemetry
	Logger    Logger
}

// Ingestor applies state reports.
type Ingestor struct {
	devices   DeviceStore
	safety    SafetyStore
	notifier  Notifier
	telemetry Telemetry
	logger    Logger
}

// New creates an Ingestor.
func New(deps Deps) *Ingestor {
	if deps.Logger == nil {
		deps.Logger = noopLogger{}
	}
	return &Ingestor{
		devices:   deps.Devices,
		safety:    deps.Safety,
		notifier:  deps.Notifier,
		telemetry: deps.Telemetry,
		logger:    deps.Logger,
	}
}

// Start subscribes to every device state topic. Handler errors are logged
// by the MQTT client.
func (i *Ingestor) Start(sub Subscriber, qos byte) error {
	topic := mqtt.Topics{}.AllDeviceStates()
	return sub.Subscribe(topic, qos, func(t string, payload []byte) error {
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()
		return i.HandleState(ctx, t, payload)
	})
}

// HandleState applies one state report. A report for an unknown device is
// ignored.
func (i *Ingestor) HandleState(ctx context.Context, topic string, payload []byte) error {
	category, _, topicDeviceID, ok := mqtt.ParseDeviceTopic(topic)
	if !ok || category != "state" {
		return fmt.Errorf("%w: %s", ErrInvalidTopic, topic)
	}

	var msg StateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if msg.DeviceID == "" {
		msg.DeviceID = topicDeviceID
	}
	if msg.DeviceID != topicDeviceID {
		return fmt.Errorf("%w: device_id %q does not match topic", ErrInvalidPayload, msg.DeviceID)
	}

	online := true
	if msg.Online != nil {
		online = *msg.Online
	}

	if _, err := i.devices.UpdateState(ctx, msg.DeviceID, msg.State, online); err != nil {
		if errors.Is(err, childdevice.ErrDeviceNotFound) {
			i.logger.Debug("state report for unknown device", "device_id", msg.DeviceID)
			return nil
		}
		return fmt.Errorf("updating device %s: %w", msg.DeviceID, err)
	}

	if len(msg.State) == 0 {
		return nil
	}

	systems, err := i.safety.ListByChildDevice(ctx, msg.DeviceID)
	if err != nil {
		return fmt.Errorf("listing safety systems for %s: %w", msg.DeviceID, err)
	}
	for idx := range systems {
		if err := i.applySafety(ctx, &systems[idx], msg.State); err != nil {
			return err
		}
	}
	return nil
}

func (i *Ingestor) applySafety(ctx context.Context, sys *safety.System, state map[string]any) error {
	readings := maps.Clone(sys.SensorReadings)
	if readings == nil {
		readings = make(map[string]any)
	}
	changed := false
	for _, key := range []string{
		safety.ReadingSmokeLevel,
		safety.ReadingFlameDetected,
		safety.ReadingTemperature,
		safety.ReadingWindowStatus,
	} {
		v, ok := state[key]
		if !ok {
			continue
		}
		if old, had := readings[key]; !had || !reflect.DeepEqual(old, v) {
			readings[key] = v
			changed = true
		}
	}

	prev := sys.Status
	status := DeriveStatus(sys.SystemType, prev, state)
	if status == prev && !changed {
		return nil
	}

	sys.SensorReadings = readings
	sys.Status = status
	if err := i.safety.Update(ctx, sys); err != nil {
		return fmt.Errorf("updating safety system %s: %w", sys.ID, err)
	}

	if i.telemetry != nil {
		i.telemetry.WriteSafetyReading(sys.ID, string(sys.SystemType), string(sys.Status), readings)
	}

	if status == safety.StatusAlert && prev != safety.StatusAlert && i.notifier != nil {
		n := &notification.Notification{
			UserID:  sys.UserID,
			Type:    notification.TypeSafety,
			Title:   fmt.Sprintf("%s alert", alertName(sys.SystemType)),
			Message: fmt.Sprintf("%s reported an alert in %s.", alertName(sys.SystemType), sys.RoomName),
		}
		if err := i.notifier.Create(ctx, n); err != nil {
			i.logger.Warn("creating safety notification failed", "system_id", sys.ID, "error", err)
		}
	}
	return nil
}

// DeriveStatus computes a safety system's status from a device report.
// An explicit "status" value wins. Otherwise smoke detectors derive alert
// from flame detection or smoke level, and fire suppression systems
// derive suppression_active from an "active" flag. Anything else keeps
// the current status.
func DeriveStatus(t safety.SystemType, current safety.Status, state map[string]any) safety.Status {
	if s, ok := state["status"].(string); ok {
		switch st := safety.Status(s); st {
		case safety.StatusSafe, safety.StatusAlert, safety.StatusActive,
			safety.StatusSuppressionActive, safety.StatusUnknown:
			return st
		}
	}

	switch t {
	case safety.TypeSmokeDetector:
		flame, hasFlame := state[safety.ReadingFlameDetected].(bool)
		level, hasLevel := state[safety.ReadingSmokeLevel].(float64)
		if !hasFlame && !hasLevel {
			return current
		}
		if flame || level >= SmokeAlertLevel {
			return safety.StatusAlert
		}
		return safety.StatusSafe
	case safety.TypeFireSuppression:
		if active, ok := state["active"].(bool); ok {
			if active {
				return safety.StatusSuppressionActive
			}
			return safety.StatusSafe
		}
	}
	return current
}

func alertName(t safety.SystemType) string {
	switch t {
	case safety.TypeSmokeDetector:
		return "Smoke detector"
	case safety.TypeFireSuppression:
		return "Fire suppression"
	case safety.TypeWindowRain:
		return "Window sensor"
	case safety.TypeTemperature:
		return "Temperature sensor"
	default:
		return "Safety system"
	}
}
