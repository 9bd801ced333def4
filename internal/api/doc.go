// Package api implements the HTTP REST API and WebSocket server for Gray
// Logic Home.
//
// This package provides:
//   - REST endpoints for rooms and appliances, safety and security
//     systems, settings, notifications, voice commands and auto-lock
//   - WebSocket hub pushing toasts, refresh events and live view snapshots
//   - Bearer token validation with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// Handlers call the domain services, which persist through the
// repositories and publish on the event bus. The server bridges bus
// events to WebSocket channels. A client subscribing to a view.* channel
// gets a live view mounted for it; every change on the underlying tables
// refetches the view and pushes the new snapshot.
//
// # Security
//
// Tokens are issued by the hosted identity service and only validated
// here. WebSocket connections use single-use tickets so the token never
// appears in a URL.
package api
