package room

import "errors"

var (
	// ErrRoomNotFound is returned when a room ID does not exist for the user.
	ErrRoomNotFound = errors.New("room: not found")

	// ErrRoomExists is returned when creating a room with an existing ID.
	ErrRoomExists = errors.New("room: already exists")

	// ErrApplianceNotFound is returned when an appliance ID is not in the room.
	ErrApplianceNotFound = errors.New("room: appliance not found")

	// ErrInvalidRoom is returned when room fields fail validation.
	ErrInvalidRoom = errors.New("room: invalid room")

	// ErrInvalidAppliance is returned when appliance fields fail validation.
	ErrInvalidAppliance = errors.New("room: invalid appliance")
)
