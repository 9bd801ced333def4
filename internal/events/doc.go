// Package events is the in-process publish/subscribe bus that decouples
// state mutations from their side effects.
//
// The set of event kinds is closed: every kind has a concrete payload type
// in this package, so subscribers receive typed values instead of
// stringly-named custom events.
//
// Delivery is synchronous. Publish calls every handler registered for the
// event's kind when Publish begins, in registration order, on the calling
// goroutine. There is no queueing or persistence; a slow handler delays the
// publisher.
//
//	dispose := events.On(bus, func(ev events.SystemStateChanged) {
//	    coordinator.Sync(ctx, ev.UserID)
//	})
//	defer dispose()
//
//	bus.Publish(events.SystemStateChanged{UserID: "u1", Source: "room"})
package events
