package childdevice

import "errors"

var (
	// ErrDeviceNotFound is returned when a device does not exist.
	ErrDeviceNotFound = errors.New("childdevice: not found")

	// ErrDeviceExists is returned when creating a device with an existing ID.
	ErrDeviceExists = errors.New("childdevice: already exists")

	// ErrInvalidDevice is returned when device fields fail validation.
	ErrInvalidDevice = errors.New("childdevice: invalid device")
)
