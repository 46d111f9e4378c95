// Package handlers provides HTTP handlers for queue and service status endpoints.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/observability"
	"github.com/planwerk/stundenplan/internal/parsejob"
	"github.com/planwerk/stundenplan/internal/server/responses"
)

// QueueReporter exposes the parse pool state needed by status handlers.
type QueueReporter interface {
	Length() int
	Workers() int
	Capacity() int
	ActiveJobs() []parsejob.Job
	RecentJobs() []parsejob.Job
}

// StatusHandlers contains status-related HTTP handlers.
type StatusHandlers struct {
	queue        QueueReporter
	cfg          *config.Config
	startTime    time.Time
	collector    *observability.MetricsCollector
	errorAdapter *errors.HTTPErrorAdapter
}

// NewStatusHandlers creates a new status handlers instance.
func NewStatusHandlers(queue QueueReporter, cfg *config.Config, startTime time.Time) *StatusHandlers {
	return &StatusHandlers{
		queue:        queue,
		cfg:          cfg,
		startTime:    startTime,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// SetCollector injects the in-process metrics collector (optional).
func (h *StatusHandlers) SetCollector(c *observability.MetricsCollector) {
	h.collector = c
}

// HandleStatus handles the queue/job status endpoint.
func (h *StatusHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "GET").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	status := &responses.StatusResponse{
		Status:    "running",
		Uptime:    time.Since(h.startTime).Seconds(),
		StartTime: h.startTime,
		Queue: responses.QueueSummary{
			Workers:  h.queue.Workers(),
			Queued:   h.queue.Length(),
			Capacity: h.queue.Capacity(),
		},
		Config:     h.summarizeConfig(),
		ActiveJobs: toJobInfos(h.queue.ActiveJobs()),
		RecentJobs: toJobInfos(h.queue.RecentJobs()),
		Timestamp:  time.Now().UTC(),
	}
	if h.collector != nil {
		status.Statistics = summarizeStats(h.collector.GetSnapshot())
	}

	if err := writeJSONPretty(w, r, http.StatusOK, status); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to encode status response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

// summarizeConfig creates a sanitized view of the configuration (no paths, no URLs).
func (h *StatusHandlers) summarizeConfig() responses.ConfigSummary {
	return responses.ConfigSummary{
		Workers:        h.cfg.Parser.Workers,
		QueueSize:      h.cfg.Parser.QueueSize,
		JobTimeout:     h.cfg.Parser.JobTimeout,
		MaxUploadBytes: h.cfg.Server.MaxUploadBytes,
		Hash:           h.cfg.Snapshot(),
	}
}

func toJobInfos(jobs []parsejob.Job) []responses.JobInfo {
	infos := make([]responses.JobInfo, len(jobs))
	for i, job := range jobs {
		infos[i] = responses.JobInfo{
			ID:          job.ID,
			Source:      string(job.Source),
			Filename:    job.Filename,
			Status:      string(job.Status),
			CreatedAt:   job.CreatedAt,
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
			DurationMS:  job.Duration.Milliseconds(),
			Error:       job.Error,
		}
	}
	return infos
}

func summarizeStats(snap observability.MetricsSnapshot) responses.ParseStatistics {
	return responses.ParseStatistics{
		TotalParses:     snap.TotalParses,
		ParseErrors:     snap.ParseErrors,
		ParsesBySource:  snap.ParsesBySource,
		UploadsRejected: snap.UploadsRejected,
		ExportsByFormat: snap.ExportsByFormat,
		EventsPublished: snap.EventsPublished,
		HTTPRequests:    snap.HTTPRequests,
	}
}
