// Package parsejob runs PDF parses on a bounded worker pool.
//
// Every parse, whether it came from an upload, the watch inbox or the CLI,
// moves through the same job lifecycle so the status endpoint can report a
// single queue.
package parsejob

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/planwerk/stundenplan/internal/timetable"
)

// Status represents the current state of a parse job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Source identifies where a parse job came from.
type Source string

const (
	SourceUpload Source = "upload" // HTTP multipart or raw body upload
	SourceWatch  Source = "watch"  // inbox directory watcher
	SourceCLI    Source = "cli"    // one-shot command line parse
)

// Job is a single parse request moving through the pool.
type Job struct {
	ID          string        `json:"id"`
	Source      Source        `json:"source"`
	Filename    string        `json:"filename"`
	Status      Status        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`

	path   string
	result *timetable.BuildResult
	err    error
	done   chan struct{}
	cancel context.CancelFunc
}

// NewJob creates a queued job for a PDF already on disk. Filename is the
// display name (the original upload name); path is where the bytes live.
func NewJob(source Source, filename, path string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Source:    source,
		Filename:  filename,
		Status:    StatusQueued,
		CreatedAt: time.Now(),
		path:      path,
		done:      make(chan struct{}),
	}
}

// Result returns the parse outcome. It is only valid after the job
// finished, which Submit waits for.
func (j *Job) Result() (*timetable.BuildResult, error) {
	return j.result, j.err
}

// Done returns a channel closed when the job finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}
