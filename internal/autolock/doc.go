// Package autolock turns the home off shortly after its owner leaves.
//
// A Service holds a single countdown. Switching security mode to away
// arms it; switching back to home, or an explicit cancel, disarms it. When
// the countdown elapses every appliance that is on and not listed in the
// user's shutdown exceptions is switched off.
//
// State machine:
//
//	Idle  --Arm-->    Armed
//	Armed --Arm-->    Armed   (previous countdown discarded)
//	Armed --Cancel--> Idle
//	Armed --expiry--> Idle    (shutdown runs)
//
// Status reports the full configured delay as the remaining time whenever
// the service is armed; clients run their own countdown from ExpiresAt.
package autolock
