// Package childdevice stores the physical devices that appliances and
// safety systems mirror, and sends them commands over MQTT.
//
// Device state is a free-form map. Power is held under the "power" key as
// "on" or "off"; sensors add their own readings.
package childdevice
