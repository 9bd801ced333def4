// Package safety stores the household's safety systems: smoke detectors,
// fire suppression, window/rain sensors and temperature monitors.
//
// Safety systems reference rooms by name rather than by ID. The
// reconciler in package reconcile relies on that name to mirror window
// coverings into window_rain sensors.
package safety
