// Package responses defines API response types used by stundenplan HTTP handlers.
package responses

import "time"

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse represents the service status API response.
type StatusResponse struct {
	Status     string          `json:"status"`
	Uptime     float64         `json:"uptime"`
	StartTime  time.Time       `json:"start_time"`
	Queue      QueueSummary    `json:"queue"`
	Config     ConfigSummary   `json:"config"`
	ActiveJobs []JobInfo       `json:"active_jobs"`
	RecentJobs []JobInfo       `json:"recent_jobs"`
	Statistics ParseStatistics `json:"statistics"`
	Timestamp  time.Time       `json:"timestamp"`
}

// QueueSummary represents the parse queue state.
type QueueSummary struct {
	Workers  int `json:"workers"`
	Queued   int `json:"queued"`
	Capacity int `json:"capacity"`
}

// ConfigSummary represents a sanitized view of the configuration.
type ConfigSummary struct {
	Workers        int    `json:"workers"`
	QueueSize      int    `json:"queue_size"`
	JobTimeout     string `json:"job_timeout"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	Hash           string `json:"hash"`
}

// JobInfo represents information about a specific parse job.
type JobInfo struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Filename    string     `json:"filename"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// ParseStatistics represents aggregate parse counters.
type ParseStatistics struct {
	TotalParses     int64            `json:"total_parses"`
	ParseErrors     int64            `json:"parse_errors"`
	ParsesBySource  map[string]int64 `json:"parses_by_source,omitempty"`
	UploadsRejected map[string]int64 `json:"uploads_rejected,omitempty"`
	ExportsByFormat map[string]int64 `json:"exports_by_format,omitempty"`
	EventsPublished int64            `json:"events_published"`
	HTTPRequests    int64            `json:"http_requests"`
}
