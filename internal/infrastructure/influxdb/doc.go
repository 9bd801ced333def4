// Package influxdb records household telemetry in InfluxDB v2.
//
// Three measurements are written:
//   - appliance_state: every appliance toggle, with power draw when known
//   - autolock_shutdown: one point per auto-lock expiry
//   - safety_reading: sensor readings ingested for safety systems
//
// Telemetry is optional. When influxdb.enabled is false, Connect returns
// ErrDisabled and callers run without it.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	}
//	defer client.Close()
package influxdb
