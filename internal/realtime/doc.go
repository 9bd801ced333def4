// Package realtime is the table change feed behind the live views.
//
// Repositories publish a Change after every committed write. Subscribers
// register for a table (or "*"), an optional column=value filter and a set
// of event types. Each subscription has its own delivery goroutine and a
// bounded queue, so a slow subscriber never blocks a writer. When a queue
// is full the notification is dropped with a warning; every consumer in
// this codebase refetches the full data set on any notification, so a
// dropped notification is covered by the ones still queued.
//
// Relay republishes every change on MQTT (graylogic/core/changes/{table})
// for consumers outside the process.
package realtime
