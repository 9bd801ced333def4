package security

import "errors"

var (
	// ErrSystemNotFound is returned when a security system does not exist.
	ErrSystemNotFound = errors.New("security: system not found")

	// ErrSystemExists is returned when creating a system with an existing ID.
	ErrSystemExists = errors.New("security: system already exists")

	// ErrInvalidSystem is returned when system fields fail validation.
	ErrInvalidSystem = errors.New("security: invalid system")
)
