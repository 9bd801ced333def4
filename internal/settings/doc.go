// Package settings holds the per-household user settings record: plan,
// auto-lock behaviour, power sources and voice assistant preferences.
//
// The record is a singleton keyed by user ID and is created with defaults
// on first access.
package settings
