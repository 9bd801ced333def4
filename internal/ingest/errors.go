package ingest

import "errors"

// Domain errors for state ingest.
var (
	ErrInvalidTopic   = errors.New("not a device state topic")
	ErrInvalidPayload = errors.New("invalid state payload")
)
