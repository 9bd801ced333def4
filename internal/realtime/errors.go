package realtime

import "errors"

var (
	// ErrClosed is returned when subscribing to a closed broker.
	ErrClosed = errors.New("realtime: broker closed")

	// ErrInvalidSubscription is returned for an empty table or nil handler.
	ErrInvalidSubscription = errors.New("realtime: invalid subscription")
)
