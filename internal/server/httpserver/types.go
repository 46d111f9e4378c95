package httpserver

import (
	"context"
	"net/http"

	"github.com/planwerk/stundenplan/internal/metrics"
	"github.com/planwerk/stundenplan/internal/observability"
	"github.com/planwerk/stundenplan/internal/parsejob"
	"github.com/planwerk/stundenplan/internal/timetable"
)

// Runtime is the parse pool surface required by the HTTP handlers.
// It intentionally matches the interfaces in internal/server/handlers.
type Runtime interface {
	Submit(ctx context.Context, job *parsejob.Job) (*timetable.BuildResult, error)
	Length() int
	Workers() int
	Capacity() int
	ActiveJobs() []parsejob.Job
	RecentJobs() []parsejob.Job
}

// Options configures additional server wiring that is runtime-specific.
type Options struct {
	// Optional: Prometheus metrics endpoint mounted on the admin server.
	PrometheusHandler http.Handler

	// Optional: recorder for upload and export counters.
	Recorder metrics.Recorder

	// Optional: in-process collector backing /status statistics and the
	// request counter.
	Collector *observability.MetricsCollector
}
