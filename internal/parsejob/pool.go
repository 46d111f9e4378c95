package parsejob

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/logfields"
	"github.com/planwerk/stundenplan/internal/metrics"
	"github.com/planwerk/stundenplan/internal/observability"
	"github.com/planwerk/stundenplan/internal/timetable"
)

// EventEmitter publishes job lifecycle notifications. Emit failures are
// logged and never affect the job outcome.
type EventEmitter interface {
	EmitParseCompleted(ctx context.Context, jobID, source string, duration time.Duration, result *timetable.BuildResult) error
	EmitParseFailed(ctx context.Context, jobID, source, message string) error
}

// Pool manages the queue of parse jobs and its workers.
type Pool struct {
	jobs        chan *Job
	workers     int
	maxSize     int
	jobTimeout  time.Duration
	mu          sync.RWMutex
	active      map[string]*Job
	history     []*Job
	historySize int
	stopChan    chan struct{}
	wg          sync.WaitGroup
	parser      Parser

	recorder  metrics.Recorder
	collector *observability.MetricsCollector
	emitter   EventEmitter
}

// NewPool creates a pool sized from the parser configuration.
func NewPool(cfg config.ParserConfig, parser Parser) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	maxSize := cfg.QueueSize
	if maxSize <= 0 {
		maxSize = 16
	}
	if parser == nil {
		panic("NewPool: parser is required")
	}

	return &Pool{
		jobs:        make(chan *Job, maxSize),
		workers:     workers,
		maxSize:     maxSize,
		jobTimeout:  cfg.JobTimeoutDuration(),
		active:      make(map[string]*Job),
		history:     make([]*Job, 0),
		historySize: 50,
		stopChan:    make(chan struct{}),
		parser:      parser,
		recorder:    metrics.NoopRecorder{},
	}
}

// SetRecorder injects a metrics recorder (optional).
func (p *Pool) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	p.recorder = r
}

// SetCollector injects the in-memory stats collector behind the status
// endpoint (optional).
func (p *Pool) SetCollector(c *observability.MetricsCollector) {
	p.collector = c
}

// SetEventEmitter injects a parse event emitter (optional).
func (p *Pool) SetEventEmitter(emitter EventEmitter) {
	p.emitter = emitter
}

// JobTimeout returns the per-job execution deadline.
func (p *Pool) JobTimeout() time.Duration {
	return p.jobTimeout
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Capacity returns the maximum number of queued jobs.
func (p *Pool) Capacity() int {
	return p.maxSize
}

// Start begins processing jobs with the configured number of workers.
func (p *Pool) Start(ctx context.Context) {
	slog.Info("Starting parse pool", "workers", p.workers, "queue_size", p.maxSize)
	for i := range p.workers {
		p.wg.Add(1)
		go p.worker(ctx, fmt.Sprintf("worker-%d", i))
	}
}

// Stop cancels active jobs and waits for the workers to drain.
func (p *Pool) Stop(_ context.Context) {
	close(p.stopChan)

	p.mu.Lock()
	for _, job := range p.active {
		if job.cancel != nil {
			job.cancel()
		}
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// Length returns the number of queued jobs.
func (p *Pool) Length() int {
	return len(p.jobs)
}

// Enqueue adds a job without waiting for its completion.
func (p *Pool) Enqueue(job *Job) error {
	if job == nil || job.done == nil {
		return errors.InternalError("job must be created with NewJob").Build()
	}

	job.Status = StatusQueued

	select {
	case p.jobs <- job:
		p.recorder.SetQueueDepth(len(p.jobs))
		return nil
	default:
		return errors.ExhaustedError("parse queue is full").Build()
	}
}

// Submit enqueues a job and waits until it finished or ctx gave up. The
// job keeps running on the pool if the caller leaves early.
func (p *Pool) Submit(ctx context.Context, job *Job) (*timetable.BuildResult, error) {
	if err := p.Enqueue(job); err != nil {
		return nil, err
	}

	select {
	case <-job.done:
		return job.result, job.err
	case <-ctx.Done():
		if stdErrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.WrapError(ctx.Err(), errors.CategoryTimeout, "Timed out while parsing the PDF file.").Build()
		}
		return nil, errors.WrapError(ctx.Err(), errors.CategoryRuntime, "request canceled before parsing finished").Build()
	}
}

// JobSnapshot returns a copy of a job by ID, active jobs first.
func (p *Pool) JobSnapshot(id string) (Job, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if j, ok := p.active[id]; ok {
		return *j, true
	}
	for _, j := range p.history {
		if j.ID == id {
			return *j, true
		}
	}
	return Job{}, false
}

// ActiveJobs returns copies of the currently running jobs.
func (p *Pool) ActiveJobs() []Job {
	p.mu.RLock()
	defer p.mu.RUnlock()

	active := make([]Job, 0, len(p.active))
	for _, job := range p.active {
		active = append(active, *job)
	}
	return active
}

// RecentJobs returns copies of finished jobs, newest first.
func (p *Pool) RecentJobs() []Job {
	p.mu.RLock()
	defer p.mu.RUnlock()

	recent := make([]Job, 0, len(p.history))
	for i := len(p.history) - 1; i >= 0; i-- {
		recent = append(recent, *p.history[i])
	}
	return recent
}

func (p *Pool) worker(ctx context.Context, workerID string) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case job := <-p.jobs:
			if job != nil {
				p.recorder.SetQueueDepth(len(p.jobs))
				p.processJob(ctx, job, workerID)
			}
		}
	}
}

func (p *Pool) processJob(ctx context.Context, job *Job, workerID string) {
	jobCtx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	job.cancel = cancel
	defer cancel()

	jobCtx = observability.WithJobID(jobCtx, job.ID)
	jobCtx = observability.WithSource(jobCtx, string(job.Source))

	startTime := time.Now()
	p.mu.Lock()
	job.StartedAt = &startTime
	job.Status = StatusRunning
	p.active[job.ID] = job
	running := len(p.active)
	p.mu.Unlock()
	p.recorder.SetActiveWorkers(running)

	if p.collector != nil {
		p.collector.RecordParseStart(string(job.Source))
	}
	observability.InfoContext(jobCtx, "parse started",
		logfields.Worker(workerID),
		logfields.File(job.Filename))

	jobCtx, span := observability.GetGlobalTracer().StartParseSpan(jobCtx, job.ID)
	result, err := p.parser.Parse(jobCtx, job.path)
	observability.EndSpan(span, err)

	duration := p.markCompleted(job, result, err)

	p.recorder.ObserveParseDuration(duration)
	p.recorder.IncParseOutcome(outcomeFor(err))
	if p.collector != nil {
		p.collector.RecordParseEnd(duration, err == nil)
	}

	p.emitCompletion(ctx, job, result, err, duration)

	if err != nil {
		observability.WarnContext(jobCtx, "parse failed",
			logfields.Worker(workerID),
			logfields.DurationMS(float64(duration.Milliseconds())),
			logfields.Error(err))
		return
	}
	attrs := []slog.Attr{
		logfields.Worker(workerID),
		logfields.DurationMS(float64(duration.Milliseconds())),
		slog.Int("entries", result.Timetable.EntryCount()),
	}
	if result.ClassName != nil {
		attrs = append(attrs, logfields.Class(*result.ClassName))
	}
	observability.InfoContext(jobCtx, "parse completed", attrs...)
}

func (p *Pool) markCompleted(job *Job, result *timetable.BuildResult, err error) time.Duration {
	endTime := time.Now()
	p.mu.Lock()
	job.CompletedAt = &endTime
	if job.StartedAt != nil {
		job.Duration = endTime.Sub(*job.StartedAt)
	}
	delete(p.active, job.ID)
	p.addToHistory(job)
	job.result = result
	job.err = err
	switch {
	case err == nil:
		job.Status = StatusCompleted
	case stdErrors.Is(err, context.Canceled):
		job.Status = StatusCanceled
		job.Error = err.Error()
	default:
		job.Status = StatusFailed
		job.Error = err.Error()
	}
	duration := job.Duration
	p.mu.Unlock()

	close(job.done)
	return duration
}

func (p *Pool) emitCompletion(ctx context.Context, job *Job, result *timetable.BuildResult, err error, duration time.Duration) {
	if p.emitter == nil {
		return
	}

	if err != nil {
		if emitErr := p.emitter.EmitParseFailed(ctx, job.ID, string(job.Source), err.Error()); emitErr != nil {
			slog.Warn("Failed to emit parse failed event", "job_id", job.ID, "error", emitErr)
		}
		return
	}
	if emitErr := p.emitter.EmitParseCompleted(ctx, job.ID, string(job.Source), duration, result); emitErr != nil {
		slog.Warn("Failed to emit parse completed event", "job_id", job.ID, "error", emitErr)
	}
}

func (p *Pool) addToHistory(job *Job) {
	p.history = append(p.history, job)
	if len(p.history) > p.historySize {
		copy(p.history, p.history[len(p.history)-p.historySize:])
		p.history = p.history[:p.historySize]
	}
}

// outcomeFor maps a job error to its metric label. Bad input documents are
// warnings; infrastructure failures are fatal.
func outcomeFor(err error) metrics.ResultLabel {
	if err == nil {
		return metrics.ResultSuccess
	}
	if stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded) {
		return metrics.ResultCanceled
	}
	switch errors.GetCategory(err) {
	case errors.CategoryDocument, errors.CategoryValidation:
		return metrics.ResultWarning
	default:
		return metrics.ResultFatal
	}
}
