// Package reconcile keeps derived cross-system state consistent after a
// mutation.
//
// Today it mirrors smart shading appliances into the window_status reading
// of window_rain safety systems in the same room. Rooms and safety systems
// are linked by room name only (see roomMatches), so renaming a room
// silently breaks the link until the safety system is renamed too.
package reconcile
