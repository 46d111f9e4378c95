package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/observability"
	"github.com/planwerk/stundenplan/internal/watch"
)

func runWatch(cfg *config.Config) error {
	if CLI.Watch.Dir != "" {
		if cfg.Watch == nil {
			cfg.Watch = &config.WatchConfig{}
		}
		cfg.Watch.Dir = CLI.Watch.Dir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := observability.InitMetricsCollector()
	pool, _ := newParsePool(cfg, collector)

	publisher, err := setupNotify(cfg, pool, nil, collector)
	if err != nil {
		return err
	}

	watcher, err := watch.New(cfg.Watch, pool, slog.Default())
	if err != nil {
		closePublisher(publisher)
		return err
	}

	pool.Start(ctx)
	if err := watcher.Start(ctx); err != nil {
		pool.Stop(ctx)
		closePublisher(publisher)
		return err
	}

	slog.Info("Watch mode started, waiting for shutdown signal...", "dir", watcher.Dir())
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping watcher...")

	if err := watcher.Stop(context.Background()); err != nil {
		slog.Warn("Watcher stop reported errors", "error", err)
	}
	pool.Stop(context.Background())
	closePublisher(publisher)

	slog.Info("Watcher stopped")
	return nil
}
