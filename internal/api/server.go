package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/audit"
	"github.com/nerrad567/gray-logic-home/internal/autolock"
	"github.com/nerrad567/gray-logic-home/internal/childdevice"
	"github.com/nerrad567/gray-logic-home/internal/events"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-home/internal/notification"
	"github.com/nerrad567/gray-logic-home/internal/room"
	"github.com/nerrad567/gray-logic-home/internal/safety"
	"github.com/nerrad567/gray-logic-home/internal/security"
	"github.com/nerrad567/gray-logic-home/internal/settings"
	"github.com/nerrad567/gray-logic-home/internal/view"
	"github.com/nerrad567/gray-logic-home/internal/voice"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// AutoLock is the auto-lock capability the API exposes.
type AutoLock interface {
	Status() autolock.Status
	CancelFor(userID string) bool
}

// ConnectionStatus reports whether an infrastructure client is connected.
type ConnectionStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Version  string

	Bus  *events.Bus
	Feed view.Subscriber

	Rooms         *room.Service
	Safety        safety.Repository
	SecuritySvc   *security.Service
	Settings      *settings.Service
	Notifications notification.Repository
	Devices       childdevice.Repository
	Voice         *voice.Service
	AutoLock      AutoLock
	Audit         audit.Repository

	// Optional, reported by the metrics endpoint.
	DB   *sql.DB
	MQTT ConnectionStatus
}

// Server is the HTTP API server for Gray Logic Home.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	secCfg  config.SecurityConfig
	logger  *logging.Logger
	version string

	bus  *events.Bus
	feed view.Subscriber

	rooms         *room.Service
	safety        safety.Repository
	security      *security.Service
	settings      *settings.Service
	notifications notification.Repository
	devices       childdevice.Repository
	voice         *voice.Service
	autolock      AutoLock
	auditRepo     audit.Repository

	db   *sql.DB
	mqtt ConnectionStatus

	server     *http.Server
	hub        *Hub
	tickets    *ticketStore
	startTime  time.Time
	cancel     context.CancelFunc // cancels background goroutines on Close()
	disposeBus func()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Bus == nil || deps.Feed == nil {
		return nil, fmt.Errorf("event bus and change feed are required")
	}
	if deps.Rooms == nil || deps.Safety == nil || deps.SecuritySvc == nil || deps.Settings == nil ||
		deps.Notifications == nil || deps.Devices == nil || deps.Voice == nil || deps.AutoLock == nil {
		return nil, fmt.Errorf("all domain services are required")
	}

	return &Server{
		cfg:           deps.Config,
		wsCfg:         deps.WS,
		secCfg:        deps.Security,
		logger:        deps.Logger,
		version:       deps.Version,
		bus:           deps.Bus,
		feed:          deps.Feed,
		rooms:         deps.Rooms,
		safety:        deps.Safety,
		security:      deps.SecuritySvc,
		settings:      deps.Settings,
		notifications: deps.Notifications,
		devices:       deps.Devices,
		voice:         deps.Voice,
		autolock:      deps.AutoLock,
		auditRepo:     deps.Audit,
		db:            deps.DB,
		mqtt:          deps.MQTT,
		hub:           NewHub(deps.WS, deps.Logger),
		tickets:       newTicketStore(),
		startTime:     time.Now(),
	}, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, bridges bus events to WebSocket channels,
// and launches the HTTP listener in a background goroutine. The server
// can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.cleanTicketsLoop(srvCtx)
	s.disposeBus = s.bridgeEvents()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.disposeBus != nil {
		s.disposeBus()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
