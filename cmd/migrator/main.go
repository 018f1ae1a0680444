package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/navikt/inquiry-migrator/internal/config"
	"github.com/navikt/inquiry-migrator/internal/handlers"
	"github.com/navikt/inquiry-migrator/internal/health"
	"github.com/navikt/inquiry-migrator/internal/logging"
	"github.com/navikt/inquiry-migrator/internal/server"
	"github.com/navikt/inquiry-migrator/internal/store"
	"github.com/navikt/inquiry-migrator/internal/stream"
	"github.com/navikt/inquiry-migrator/internal/tasks"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(log)
	logger := log.Logger.With(logging.Service("inquiry-migrator"))

	if cfg.Databases.RunMigrations {
		if err := runMigrations(logger, cfg); err != nil {
			logger.Error("migrations failed", logging.Error(err))
			os.Exit(1)
		}
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.Databases.PrimaryURL, cfg.Databases.ArchiveURL)
	if err != nil {
		logger.Error("failed to connect to legacy stores", logging.Error(err))
		os.Exit(1)
	}
	defer st.Close()

	broker, err := stream.Connect(cfg.NATS.URL)
	if err != nil {
		logger.Error("failed to connect to broker", logging.Error(err))
		os.Exit(1)
	}
	defer broker.Close()

	if err := broker.EnsureStreams(ctx); err != nil {
		logger.Error("failed to ensure streams", logging.Error(err))
		os.Exit(1)
	}
	changelog, err := stream.NewChangeLog(ctx, broker)
	if err != nil {
		logger.Error("failed to bind change-log consumer", logging.Error(err))
		os.Exit(1)
	}
	snapshots := stream.NewOutput(broker)

	processChanges := tasks.NewProcessChangesTask(logger, st, changelog, snapshots, tasks.ProcessChangesConfig{
		BatchSize: cfg.Consumer.BatchSize,
		PollWait:  cfg.Consumer.PollWait,
		ChunkSize: cfg.Consumer.ChunkSize,
	})
	resyncChanges := tasks.NewResyncChangesTask(logger, st, changelog, cfg.Resync.Interval)
	backfill := tasks.NewBackfillTask(logger, st, changelog)
	manager := tasks.NewManager(processChanges, resyncChanges, backfill)

	if cfg.Tasks.AutoStartConsumer {
		if err := processChanges.Start(ctx); err != nil {
			logger.Error("failed to autostart consumer", logging.Error(err))
			os.Exit(1)
		}
	}
	if cfg.Tasks.AutoStartResync {
		if err := resyncChanges.Start(ctx); err != nil {
			logger.Error("failed to autostart resync", logging.Error(err))
			os.Exit(1)
		}
	}

	checks := []health.Check{
		{Name: "primary-db", Run: st.PingPrimary},
		{Name: "archive-db", Run: st.PingArchive},
		{Name: "broker", Run: func(context.Context) error {
			if !broker.Connected() {
				return stream.ErrBrokerUnavailable
			}
			return nil
		}},
		{Name: "watermark", Run: func(ctx context.Context) error {
			_, err := st.Watermark(ctx)
			return err
		}},
	}

	h := handlers.NewHandler(logger, manager, processChanges, snapshots, st, st, changelog, checks)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", logging.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	manager.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("stopped")
}

// runMigrations applies the schema migrations for both legacy stores. The
// sources are split per database under the configured migrations directory.
func runMigrations(logger *slog.Logger, cfg *config.Config) error {
	targets := []struct {
		name string
		url  string
	}{
		{"primary", cfg.Databases.PrimaryURL},
		{"archive", cfg.Databases.ArchiveURL},
	}
	for _, t := range targets {
		src := fmt.Sprintf("file://%s/%s", cfg.Databases.MigrationsDir, t.name)
		m, err := migrate.New(src, t.url)
		if err != nil {
			return fmt.Errorf("init %s migrations: %w", t.name, err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply %s migrations: %w", t.name, err)
		}
		logger.Info("migrations applied", slog.String("database", t.name))
	}
	return nil
}
