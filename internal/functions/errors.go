package functions

import "errors"

var (
	// ErrFunctionFailed is returned when a function answers with a non-2xx
	// status or success=false, or cannot be reached.
	ErrFunctionFailed = errors.New("functions: invocation failed")

	// ErrDisabled is returned when functions are not configured.
	ErrDisabled = errors.New("functions: not configured")
)
