package settings

import "errors"

var (
	// ErrSettingsNotFound is returned when the user has no settings record.
	ErrSettingsNotFound = errors.New("settings: not found")

	// ErrInvalidSettings is returned when settings fail validation.
	ErrInvalidSettings = errors.New("settings: invalid settings")

	// ErrPaymentNotVerified is returned when payment confirmation fails.
	ErrPaymentNotVerified = errors.New("settings: payment not verified")
)
