package voice

import "errors"

var (
	// ErrNoMatch is returned when no keyword occurs in the transcript.
	ErrNoMatch = errors.New("voice: no matching command")

	// ErrCommandExists is returned when a keyword is already registered.
	ErrCommandExists = errors.New("voice: keyword already registered")

	// ErrInvalidCommand is returned when command fields fail validation.
	ErrInvalidCommand = errors.New("voice: invalid command")
)
