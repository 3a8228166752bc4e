package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/retail-price-tracker/internal/engine"
	"github.com/donaldgifford/retail-price-tracker/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server, scrape engine, and notification dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply database migrations on startup")
	return cmd
}

func runServe(parent context.Context, skipMigrate bool) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		MetricInterval: cfg.Telemetry.MetricInterval,
	}, log)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Warn("flushing telemetry", "error", err)
		}
	}()

	s, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("closing store", "error", err)
		}
	}()

	if !skipMigrate {
		if err := s.Migrate(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	a, err := buildApp(cfg, s, log)
	if err != nil {
		return err
	}

	sched, err := engine.NewScheduler(a.engine, engine.MaintenanceConfig{
		SweepInterval:   cfg.Engine.Maintenance.SweepInterval,
		ReloadInterval:  cfg.Engine.Maintenance.ReloadInterval,
		StatsInterval:   cfg.Engine.Maintenance.StatsInterval,
		RecoverInterval: cfg.Engine.Maintenance.RecoverInterval,
	}, log)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	reg, err := telemetry.RegisterStats(a.engine.GetStats, log)
	if err != nil {
		return fmt.Errorf("registering stats gauges: %w", err)
	}
	defer func() {
		if err := reg.Unregister(); err != nil {
			log.Warn("unregistering stats gauges", "error", err)
		}
	}()

	// Undelivered intents from a previous run go back on the queue first.
	if n, err := a.dispatcher.Recover(ctx); err != nil {
		log.Error("recovering notification outbox", "error", err)
	} else if n > 0 {
		log.Info("recovered pending notifications", "count", n)
	}

	e, _ := newServer(s, a.engine, log)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.engine.Run(gctx)
	})
	g.Go(func() error {
		a.dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	})

	sched.Start()
	err = g.Wait()
	<-sched.Stop().Done()

	if errors.Is(err, engine.ErrDrainTimeout) {
		log.Warn("in-flight jobs were cancelled during shutdown")
		return err
	}
	if err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
