// Package server orchestrates all components: COMMS client, DB, resource
// handlers, dispatcher, theme inventory and the HTTP health endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/lib-uoguelph-ca/omeka-s/internal/config"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/commsutil"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/db"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/events"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/metrics"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/registry"
	"github.com/lib-uoguelph-ca/omeka-s/pkg/theme"
)

const logPrefix = "server:server"

// Server is the omeka-api orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	pool       *pgxpool.Pool
	store      statusSource
	reg        *registry.Registry
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// SetupLogging installs the default slog text handler at the given level.
func SetupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	SetupLogging(cfg.LogLevel)
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting omeka-api", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg, metrics: metrics.New()}

	apiSubject := cfg.APISubject
	if apiSubject == "" {
		apiSubject = commsutil.SubjectAPI
	}

	// Step 1: Connect to COMMS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName, commsutil.ConnectOpts{})
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}
	s.nc = nc

	// Step 2: Connect to database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		nc.Close()
		return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}
	s.pool = pool

	// Step 2b: Run migrations if enabled
	if cfg.RunMigrations {
		migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			pool.Close()
			nc.Close()
			return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			pool.Close()
			nc.Close()
			return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
	}
	repo := db.NewRepository(pool)
	s.store = repo

	// Step 3: Reconcile themes on disk with the inventory
	if err := ReconcileThemes(ctx, repo, cfg.ThemesPath, cfg.PlatformVersion); err != nil {
		slog.Warn(fmt.Sprintf("%s - theme reconcile skipped: %v", logPrefix, err))
	}

	// Step 4: Resource handlers, mirrored to COMMS
	publisher := events.NewCommsPublisher(nc, &events.CommsPublisherOpts{SubjectPrefix: cfg.EventSubjectPrefix})
	reg, err := BuildRegistry(cfg, repo, publisher)
	if err != nil {
		pool.Close()
		nc.Close()
		return err
	}
	s.reg = reg

	// Step 5: Dispatcher and subscription
	disp, err := BuildDispatcher(cfg, reg, s.metrics)
	if err != nil {
		pool.Close()
		nc.Close()
		return err
	}
	sub, err := Subscribe(ctx, nc, apiSubject, disp, cfg.RequestTimeout)
	if err != nil {
		pool.Close()
		nc.Close()
		return err
	}

	// Step 6: Start HTTP health server
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	s.httpServer = &http.Server{Addr: httpAddr, Handler: s.routes()}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - omeka-api is ready", logPrefix))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	sub.Unsubscribe()
	s.httpServer.Shutdown(ctx)
	nc.Drain()
	pool.Close()

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// ReconcileThemes scans dir and writes the result into the theme inventory.
func ReconcileThemes(ctx context.Context, store theme.Store, dir, platformVersion string) error {
	themes, err := theme.Scan(dir)
	if err != nil {
		return err
	}
	report, err := theme.Reconcile(ctx, store, themes, platformVersion)
	if err != nil {
		return err
	}
	for _, id := range report.Upgraded {
		slog.Info(fmt.Sprintf("%s - Theme %s upgraded", logPrefix, id))
	}
	return nil
}
