package safety

import "errors"

var (
	// ErrSystemNotFound is returned when a safety system does not exist.
	ErrSystemNotFound = errors.New("safety: system not found")

	// ErrSystemExists is returned when creating a system with an existing ID.
	ErrSystemExists = errors.New("safety: system already exists")

	// ErrInvalidSystem is returned when system fields fail validation.
	ErrInvalidSystem = errors.New("safety: invalid system")
)
