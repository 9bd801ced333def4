// Package ingest applies device state reports from protocol bridges to
// the child device registry and the safety systems linked to those
// devices.
//
// Bridges publish JSON on graylogic/state/{protocol}/{device_id}:
//
//	{"device_id": "dev-42", "online": true, "state": {"power": "on"}}
//
// A safety system whose child_device_id names the reporting device takes
// its sensor readings from the report. A transition into alert raises a
// safety notification.
package ingest
