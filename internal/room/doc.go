// Package room manages rooms and the appliances embedded in them.
//
// A Room owns an ordered list of Appliances; appliances have no table of
// their own and are persisted as part of the room row. Changing any
// appliance therefore writes the whole room, which is what the realtime
// feed reports to live views.
//
// The Service layers appliance control on top of the repository: it
// mirrors power changes to the linked child device, records telemetry and
// publishes ApplianceChanged and SystemStateChanged on the event bus so
// cross-system reconciliation runs.
package room
