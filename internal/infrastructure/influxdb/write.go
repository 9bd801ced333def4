package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the core.
const (
	MeasurementAppliance = "appliance_state"
	MeasurementAutoLock  = "autolock_shutdown"
	MeasurementSafety    = "safety_reading"
)

// ApplianceSample is one appliance state observation.
type ApplianceSample struct {
	UserID        string
	RoomID        string
	ApplianceID   string
	ApplianceType string
	On            bool
	PowerWatts    *float64
	Intensity     *int
}

// WriteApplianceState records an appliance switching on or off, with its
// power draw when known.
func (c *Client) WriteApplianceState(s ApplianceSample) {
	fields := map[string]any{"on": s.On}
	if s.PowerWatts != nil {
		fields["power_watts"] = *s.PowerWatts
	}
	if s.Intensity != nil {
		fields["intensity"] = *s.Intensity
	}

	c.writePoint(MeasurementAppliance, map[string]string{
		"user_id":      s.UserID,
		"room_id":      s.RoomID,
		"appliance_id": s.ApplianceID,
		"type":         s.ApplianceType,
	}, fields, c.now())
}

// WriteAutoLockShutdown records the outcome of one auto-lock expiry.
func (c *Client) WriteAutoLockShutdown(userID string, devicesOff, roomsChanged int, failed bool) {
	c.writePoint(MeasurementAutoLock, map[string]string{
		"user_id": userID,
	}, map[string]any{
		"devices_off":   devicesOff,
		"rooms_changed": roomsChanged,
		"failed":        failed,
	}, c.now())
}

// WriteSafetyReading records the numeric and boolean readings of a
// safety system. Non-scalar readings are skipped.
func (c *Client) WriteSafetyReading(systemID, systemType, status string, readings map[string]any) {
	fields := map[string]any{"status": status}
	for k, v := range readings {
		switch v.(type) {
		case float64, int, int64, bool, string:
			fields[k] = v
		}
	}
	c.writePoint(MeasurementSafety, map[string]string{
		"system_id":   systemID,
		"system_type": systemType,
	}, fields, c.now())
}

// WritePoint writes a custom point at the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.writePoint(measurement, tags, fields, c.now())
}

func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}
