package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the household bus.
//
// Device topics use the flat scheme graylogic/{category}/{protocol}/{device_id}
// so bridges for different radio protocols can share one broker.
const (
	TopicPrefix       = "graylogic"
	TopicPrefixCore   = "graylogic/core"
	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for Gray Logic Home MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.DeviceCommand("zigbee", "dev-42") // graylogic/command/zigbee/dev-42
type Topics struct{}

// DeviceCommand returns the topic child-device commands are published on.
//
// Example: graylogic/command/zigbee/dev-42
func (Topics) DeviceCommand(protocol, deviceID string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, protocol, deviceID)
}

// DeviceState returns the topic a bridge reports child-device state on.
//
// Example: graylogic/state/zigbee/dev-42
func (Topics) DeviceState(protocol, deviceID string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, protocol, deviceID)
}

// AllDeviceStates matches every device state report.
//
// Pattern: graylogic/state/+/+
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/state/+/+", TopicPrefix)
}

// CoreChange returns the topic table changes are relayed on.
//
// Example: graylogic/core/changes/rooms
func (Topics) CoreChange(table string) string {
	return fmt.Sprintf("%s/changes/%s", TopicPrefixCore, table)
}

// AllCoreChanges matches every relayed table change.
//
// Pattern: graylogic/core/changes/+
func (Topics) AllCoreChanges() string {
	return fmt.Sprintf("%s/changes/+", TopicPrefixCore)
}

// CoreEvent returns the topic for core events such as auto-lock shutdowns.
//
// Example: graylogic/core/event/autolock_shutdown
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// SystemStatus returns the retained core status topic (online/offline/LWT).
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// ParseDeviceTopic splits a device state or command topic into its
// category, protocol and device ID. ok is false for any other topic shape.
func ParseDeviceTopic(topic string) (category, protocol, deviceID string, ok bool) {
	rest, found := strings.CutPrefix(topic, TopicPrefix+"/")
	if !found {
		return "", "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	switch parts[0] {
	case "state", "command":
		return parts[0], parts[1], parts[2], true
	default:
		return "", "", "", false
	}
}
