// Package audit records and queries the household activity trail.
//
// Security mode and lock changes, auto-lock shutdowns and plan changes are
// written here so the owner can see who (or what) changed the home while
// they were away.
package audit
