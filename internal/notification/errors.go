package notification

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification does not exist.
	ErrNotificationNotFound = errors.New("notification: not found")

	// ErrInvalidNotification is returned when fields fail validation.
	ErrInvalidNotification = errors.New("notification: invalid notification")
)
