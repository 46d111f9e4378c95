package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/metrics"
	"github.com/planwerk/stundenplan/internal/observability"
	"github.com/planwerk/stundenplan/internal/parsejob"
	"github.com/planwerk/stundenplan/internal/server/httpserver"
	"github.com/planwerk/stundenplan/internal/spool"
	"github.com/planwerk/stundenplan/internal/version"
)

func runServe(cfg *config.Config) error {
	if CLI.Serve.Listen != "" {
		cfg.Server.Listen = CLI.Serve.Listen
	}
	if CLI.Serve.AdminListen != "" {
		cfg.Server.AdminListen = CLI.Serve.AdminListen
	}

	slog.Info("Starting timetable service",
		"version", version.Version,
		"listen", cfg.Server.Listen,
		"admin_listen", cfg.Server.AdminListen)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := observability.InitMetricsCollector()
	pool, pipeline := newParsePool(cfg, collector)

	opts := httpserver.Options{Collector: collector}
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		recorder := metrics.NewPrometheusRecorder(registry)
		pool.SetRecorder(recorder)
		pipeline.SetRecorder(recorder)
		opts.Recorder = recorder
		opts.PrometheusHandler = metrics.HTTPHandler(registry)
	}

	publisher, err := setupNotify(cfg, pool, opts.Recorder, collector)
	if err != nil {
		return err
	}

	store, err := spool.New(cfg.Spool, slog.Default())
	if err != nil {
		closePublisher(publisher)
		return err
	}

	janitor, err := startJanitor(store, cfg.Spool.SweepIntervalDuration())
	if err != nil {
		closePublisher(publisher)
		return err
	}

	pool.Start(ctx)

	server := httpserver.New(cfg, pool, store, opts)
	if err := server.Start(ctx); err != nil {
		if stopErr := stopServices(context.Background(), nil, pool, janitor); stopErr != nil {
			slog.Warn("Cleanup after failed startup reported errors", "error", stopErr)
		}
		closePublisher(publisher)
		return err
	}

	slog.Info("Service started, waiting for shutdown signal...")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping service...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer stopCancel()

	err = stopServices(stopCtx, server, pool, janitor)
	closePublisher(publisher)
	if err != nil {
		return err
	}

	slog.Info("Service stopped")
	return nil
}

// stopServices shuts down in reverse start order. The HTTP server goes
// first so no new jobs arrive while the pool drains.
func stopServices(ctx context.Context, server *httpserver.Server, pool *parsejob.Pool, janitor gocron.Scheduler) error {
	var errs []error
	if server != nil {
		if err := server.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	pool.Stop(ctx)
	if janitor != nil {
		if err := janitor.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("janitor shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// startJanitor schedules the periodic sweep that removes spooled uploads
// left behind by crashes.
func startJanitor(store *spool.Spool, interval time.Duration) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n, err := store.Sweep(); err != nil {
				slog.Warn("Spool sweep failed", "error", err)
			} else if n > 0 {
				slog.Info("Spool sweep removed stale uploads", "count", n)
			}
		}),
		gocron.WithName("spool-sweep"),
	); err != nil {
		if shutdownErr := scheduler.Shutdown(); shutdownErr != nil {
			slog.Warn("Failed to shut down scheduler", "error", shutdownErr)
		}
		return nil, fmt.Errorf("failed to schedule spool sweep: %w", err)
	}

	scheduler.Start()
	return scheduler, nil
}
