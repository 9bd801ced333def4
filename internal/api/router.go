package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(middleware.RequestSize(maxRequestBodySize))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// WebSocket (auth via ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", s.handleListRooms)
				r.Post("/", s.handleCreateRoom)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetRoom)
					r.Delete("/", s.handleDeleteRoom)
					r.Put("/occupancy", s.handleSetOccupancy)
					r.Patch("/appliances/{applianceID}", s.handleUpdateAppliance)
				})
			})

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)
				r.Delete("/{id}", s.handleDeleteDevice)
			})

			r.Route("/safety", func(r chi.Router) {
				r.Get("/", s.handleListSafety)
				r.Post("/", s.handleCreateSafety)
				r.Get("/{id}", s.handleGetSafety)
				r.Delete("/{id}", s.handleDeleteSafety)
			})

			r.Route("/security", func(r chi.Router) {
				r.Get("/", s.handleListSecurity)
				r.Post("/", s.handleCreateSecurity)
				r.Delete("/{id}", s.handleDeleteSecurity)
				r.Put("/{id}/mode", s.handleSetSecurityMode)
				r.Put("/{id}/lock", s.handleSetLock)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", s.handleGetSettings)
				r.Put("/", s.handleUpdateSettings)
				r.Put("/exceptions/{applianceID}", s.handleSetException)
				r.Post("/payment/confirm", s.handleConfirmPayment)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleListNotifications)
				r.Get("/unread-count", s.handleUnreadCount)
				r.Post("/read-all", s.handleMarkAllRead)
				r.Post("/{id}/read", s.handleMarkRead)
			})

			r.Route("/voice", func(r chi.Router) {
				r.Get("/commands", s.handleListVoiceCommands)
				r.Post("/resolve", s.handleResolveVoice)
				r.Post("/speak", s.handleSpeak)
			})

			r.Route("/autolock", func(r chi.Router) {
				r.Get("/", s.handleAutoLockStatus)
				r.Post("/cancel", s.handleCancelAutoLock)
			})

			r.Get("/audit", s.handleListAuditLogs)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
