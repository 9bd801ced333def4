// Package view keeps server-side live lists in step with the realtime
// change feed.
//
// A List fetches its whole collection on Mount and again after every
// change notification on the tables it watches. The notification payload
// is never applied directly. Between two fetches a Transition function
// can turn field changes on the same row into toasts.
//
// Fetches are not cancelled by Unmount; a result that arrives after
// Unmount is dropped.
package view
