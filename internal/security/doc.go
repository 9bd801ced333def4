// Package security stores the household's security systems and applies
// lock and mode changes.
//
// Switching a system to away publishes SecurityModeChanged, which is what
// arms the auto-lock countdown.
package security
