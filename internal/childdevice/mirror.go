package childdevice

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/infrastructure/mqtt"
)

// CommandPublisher sends JSON payloads to the message bus.
type CommandPublisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// Mirror keeps child devices in step with the appliances linked to them.
// The stored state is updated first; the MQTT command is then sent when a
// publisher is connected.
type Mirror struct {
	repo      Repository
	publisher CommandPublisher
	now       func() time.Time
}

// NewMirror creates a Mirror. publisher may be nil when MQTT is disabled.
func NewMirror(repo Repository, publisher CommandPublisher) *Mirror {
	return &Mirror{repo: repo, publisher: publisher, now: time.Now}
}

// SetPower records the power state on the device and commands it.
func (m *Mirror) SetPower(ctx context.Context, userID, deviceID string, on bool) error {
	d, err := m.repo.Get(ctx, userID, deviceID)
	if err != nil {
		return err
	}

	power := PowerOff
	if on {
		power = PowerOn
	}
	if _, err := m.repo.UpdateState(ctx, deviceID, map[string]any{StatePower: power}, d.Online); err != nil {
		return err
	}

	if m.publisher == nil {
		return nil
	}
	cmd := Command{
		Command:    "set_power",
		DeviceID:   deviceID,
		Parameters: map[string]any{"on": on},
		IssuedAt:   m.now().UTC(),
	}
	if err := m.publisher.PublishJSON(mqtt.Topics{}.DeviceCommand(d.Protocol, deviceID), cmd, false); err != nil {
		return fmt.Errorf("commanding device %s: %w", deviceID, err)
	}
	return nil
}
