package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when telemetry is switched off in
	// config. Callers treat it as "no telemetry", not as a failure.
	ErrDisabled = errors.New("influxdb: telemetry disabled")

	// ErrConnectionFailed wraps a failed ping during Connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned by HealthCheck when the client is not connected.
	ErrNotConnected = errors.New("influxdb: client closed")
)
