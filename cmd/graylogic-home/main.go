// Gray Logic Home - household control core
//
// This is the main entry point for the Gray Logic Home service. It owns
// the household database, the realtime change feed, the appliance and
// safety services, the auto-lock countdown and the HTTP/WebSocket API
// used by the dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-home/migrations"

	"github.com/nerrad567/gray-logic-home/internal/api"
	"github.com/nerrad567/gray-logic-home/internal/audit"
	"github.com/nerrad567/gray-logic-home/internal/auth"
	"github.com/nerrad567/gray-logic-home/internal/autolock"
	"github.com/nerrad567/gray-logic-home/internal/childdevice"
	"github.com/nerrad567/gray-logic-home/internal/events"
	"github.com/nerrad567/gray-logic-home/internal/functions"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-home/internal/ingest"
	"github.com/nerrad567/gray-logic-home/internal/notification"
	"github.com/nerrad567/gray-logic-home/internal/realtime"
	"github.com/nerrad567/gray-logic-home/internal/reconcile"
	"github.com/nerrad567/gray-logic-home/internal/room"
	"github.com/nerrad567/gray-logic-home/internal/safety"
	"github.com/nerrad567/gray-logic-home/internal/security"
	"github.com/nerrad567/gray-logic-home/internal/settings"
	"github.com/nerrad567/gray-logic-home/internal/voice"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	devToken := flag.String("dev-token", "", "print a development access token for `user-id` and exit")
	flag.Parse()

	if *devToken != "" {
		if err := printDevToken(os.Stdout, *devToken); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Cancel on Ctrl+C or SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printDevToken signs an access token with the configured secret so the
// API can be exercised without the hosted identity service.
func printDevToken(w io.Writer, userID string) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	token, err := auth.GenerateAccessToken(userID, cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer, cfg.Security.JWT.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Home",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Realtime change feed
	broker := realtime.NewBroker(cfg.Realtime.QueueSize)
	broker.SetLogger(log.Component("realtime"))
	defer broker.Close()
	bus := events.NewBus()
	bus.SetLogger(log.Component("events"))

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Serverless functions (optional)
	var invoker *functions.Client
	if cfg.Functions.Enabled {
		invoker, err = functions.New(cfg.Functions)
		if err != nil {
			return fmt.Errorf("creating functions client: %w", err)
		}
		log.Info("functions client ready", "base_url", cfg.Functions.BaseURL)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	svc := buildServices(db, broker, bus, mqttClient, influxClient, invoker, cfg, log)

	if n, seedErr := svc.voiceRepo.Seed(ctx, voice.DefaultCommands); seedErr != nil {
		log.Warn("seeding voice commands failed", "error", seedErr)
	} else if n > 0 {
		log.Info("voice commands seeded", "count", n)
	}

	disposeReconcile := svc.reconcile.Start(bus)
	defer disposeReconcile()
	disposeAutoLock := svc.autolock.Start(bus)
	defer disposeAutoLock()
	defer svc.autolock.Cancel()

	if mqttClient != nil {
		if err := svc.ingest.Start(mqttClient, byte(cfg.MQTT.QoS)); err != nil {
			return fmt.Errorf("subscribing to device state: %w", err)
		}
		log.Info("device state ingest started")

		if cfg.Realtime.RelayToMQTT {
			relay, relayErr := realtime.StartRelay(broker, mqttClient, log.Component("relay"))
			if relayErr != nil {
				return fmt.Errorf("starting change relay: %w", relayErr)
			}
			defer relay.Close()
			log.Info("change relay to MQTT started")
		}
	}

	var connStatus api.ConnectionStatus
	if mqttClient != nil {
		connStatus = mqttClient
	}
	srv, err := api.New(api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		Security:      cfg.Security,
		Logger:        log.Component("api"),
		Version:       version,
		Bus:           bus,
		Feed:          broker,
		Rooms:         svc.rooms,
		Safety:        svc.safety,
		SecuritySvc:   svc.security,
		Settings:      svc.settings,
		Notifications: svc.notifications,
		Devices:       svc.devices,
		Voice:         svc.voice,
		AutoLock:      svc.autolock,
		Audit:         svc.audit,
		DB:            db.DB,
		MQTT:          connStatus,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order: API, relay, auto-lock,
	// coordinator, InfluxDB, MQTT, change feed, database.
	log.Info("Gray Logic Home stopped")
	return nil
}

// services groups the domain services built over one database.
type services struct {
	rooms         *room.Service
	safety        *safety.SQLiteRepository
	security      *security.Service
	settings      *settings.Service
	notifications *notification.SQLiteRepository
	devices       *childdevice.SQLiteRepository
	voice         *voice.Service
	voiceRepo     *voice.SQLiteRepository
	audit         *audit.SQLiteRepository
	autolock      *autolock.Service
	reconcile     *reconcile.Coordinator
	ingest        *ingest.Ingestor
}

// buildServices wires repositories and services. Optional clients that are
// nil are passed on as nil interfaces so the services skip them.
func buildServices(db *database.DB, broker *realtime.Broker, bus *events.Bus, mqttClient *mqtt.Client,
	influxClient *influxdb.Client, invoker *functions.Client, cfg *config.Config, log *logging.Logger) *services {
	var (
		publisher       childdevice.CommandPublisher
		roomTelemetry   room.Telemetry
		lockTelemetry   autolock.Telemetry
		ingestTelemetry ingest.Telemetry
		settingsFn      settings.FunctionInvoker
		voiceFn         voice.FunctionInvoker
	)
	if mqttClient != nil {
		publisher = mqttClient
	}
	if influxClient != nil {
		roomTelemetry, lockTelemetry, ingestTelemetry = influxClient, influxClient, influxClient
	}
	if invoker != nil {
		settingsFn, voiceFn = invoker, invoker
	}

	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, log.Component("audit"))

	deviceRepo := childdevice.NewSQLiteRepository(db.DB, broker)
	mirror := childdevice.NewMirror(deviceRepo, publisher)

	roomRepo := room.NewSQLiteRepository(db.DB, broker)
	safetyRepo := safety.NewSQLiteRepository(db.DB, broker)
	notifRepo := notification.NewSQLiteRepository(db.DB, broker)
	settingsSvc := settings.NewService(settings.NewSQLiteRepository(db.DB, broker), settingsFn, recorder)
	voiceRepo := voice.NewSQLiteRepository(db.DB)

	return &services{
		rooms: room.NewService(roomRepo, room.ServiceDeps{
			Mirror:    mirror,
			Telemetry: roomTelemetry,
			Events:    bus,
			Logger:    log.Component("room"),
		}),
		safety:        safetyRepo,
		security:      security.NewService(security.NewSQLiteRepository(db.DB, broker), bus, recorder),
		settings:      settingsSvc,
		notifications: notifRepo,
		devices:       deviceRepo,
		voice:         voice.NewService(voiceRepo, voiceFn),
		voiceRepo:     voiceRepo,
		audit:         auditRepo,
		autolock: autolock.New(time.Duration(cfg.AutoLock.DelaySeconds)*time.Second, autolock.Deps{
			Rooms:     roomRepo,
			Settings:  settingsSvc,
			Events:    bus,
			Mirror:    mirror,
			Telemetry: lockTelemetry,
			Audit:     recorder,
			Logger:    log.Component("autolock"),
		}),
		reconcile: reconcile.New(roomRepo, safetyRepo, log.Component("reconcile")),
		ingest: ingest.New(ingest.Deps{
			Devices:   deviceRepo,
			Safety:    safetyRepo,
			Notifier:  notifRepo,
			Telemetry: ingestTelemetry,
			Logger:    log.Component("ingest"),
		}),
	}
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections that are enabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
