package main

import (
	"log/slog"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/extract"
	"github.com/planwerk/stundenplan/internal/metrics"
	"github.com/planwerk/stundenplan/internal/notify"
	"github.com/planwerk/stundenplan/internal/observability"
	"github.com/planwerk/stundenplan/internal/parsejob"
)

// newParsePool builds the extractor-backed pipeline and its worker pool.
// The collector is optional; the one-shot parse command runs without it.
func newParsePool(cfg *config.Config, collector *observability.MetricsCollector) (*parsejob.Pool, *parsejob.Pipeline) {
	extractor := extract.New(cfg.Extraction, slog.Default())
	pipeline := parsejob.NewPipeline(extractor)
	pool := parsejob.NewPool(cfg.Parser, pipeline)
	if collector != nil {
		pipeline.SetCollector(collector)
		pool.SetCollector(collector)
	}
	return pool, pipeline
}

// setupNotify connects the NATS publisher and wires it into the pool. It
// returns nil without error when notifications are disabled.
func setupNotify(cfg *config.Config, pool *parsejob.Pool, recorder metrics.Recorder, collector *observability.MetricsCollector) (*notify.Publisher, error) {
	if cfg.Notify == nil || !cfg.Notify.Enabled {
		return nil, nil
	}

	publisher, err := notify.NewPublisher(cfg.Notify)
	if err != nil {
		return nil, err
	}
	if recorder != nil {
		publisher.SetRecorder(recorder)
	}
	if collector != nil {
		publisher.SetCollector(collector)
	}
	pool.SetEventEmitter(publisher)
	return publisher, nil
}

func closePublisher(publisher *notify.Publisher) {
	if publisher == nil {
		return
	}
	if err := publisher.Close(); err != nil {
		slog.Warn("Failed to close event publisher", "error", err)
	}
}
