// Package notify publishes parse result events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/metrics"
	"github.com/planwerk/stundenplan/internal/observability"
	"github.com/planwerk/stundenplan/internal/retry"
	"github.com/planwerk/stundenplan/internal/timetable"
)

const (
	connectTimeout = 5 * time.Second
	reconnectWait  = 2 * time.Second
)

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// Event is the payload published after each parse job. Days counts
// weekdays that carry at least one lesson.
type Event struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	Class      *string   `json:"class"`
	Days       int       `json:"days"`
	Entries    int       `json:"entries"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"ts"`
}

// Publisher pushes parse events to a NATS subject. It satisfies the parse
// pool's EventEmitter.
type Publisher struct {
	conn      *nats.Conn
	subject   string
	policy    retry.Policy
	recorder  metrics.Recorder
	collector *observability.MetricsCollector
}

// NewPublisher connects to NATS. The connection reconnects indefinitely in
// the background; publishes during an outage buffer until reconnect.
func NewPublisher(cfg *config.NotifyConfig) (*Publisher, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("notifications are disabled")
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("stundenplan"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS publisher initialized", "url", cfg.URL, "subject", cfg.Subject)

	return &Publisher{
		conn:     conn,
		subject:  cfg.Subject,
		policy:   retry.DefaultPolicy(),
		recorder: metrics.NoopRecorder{},
	}, nil
}

// SetRecorder injects a metrics recorder (optional).
func (p *Publisher) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	p.recorder = r
}

// SetCollector injects the in-memory stats collector (optional).
func (p *Publisher) SetCollector(c *observability.MetricsCollector) {
	p.collector = c
}

// EmitParseCompleted publishes a completed event with result counts.
func (p *Publisher) EmitParseCompleted(ctx context.Context, jobID, source string, duration time.Duration, result *timetable.BuildResult) error {
	return p.publish(ctx, Event{
		ID:         jobID,
		Source:     source,
		Status:     statusCompleted,
		Class:      result.ClassName,
		Days:       lessonDays(result.Timetable),
		Entries:    result.Timetable.EntryCount(),
		DurationMS: duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
}

// EmitParseFailed publishes a failed event carrying the public error message.
func (p *Publisher) EmitParseFailed(ctx context.Context, jobID, source, message string) error {
	return p.publish(ctx, Event{
		ID:        jobID,
		Source:    source,
		Status:    statusFailed,
		Error:     message,
		Timestamp: time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.recorder.IncEventPublished(metrics.ResultFatal)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying event publish", "subject", p.subject, "attempt", attempt)
		}
		lastErr = p.conn.Publish(p.subject, data)
		if lastErr == nil {
			p.recorder.IncEventPublished(metrics.ResultSuccess)
			if p.collector != nil {
				p.collector.RecordEventPublished()
			}
			slog.Debug("Published parse event", "subject", p.subject, "job_id", event.ID, "status", event.Status)
			return nil
		}
		if attempt == p.policy.MaxRetries {
			break
		}
		select {
		case <-time.After(p.policy.Delay(attempt + 1)):
		case <-ctx.Done():
			p.recorder.IncEventPublished(metrics.ResultCanceled)
			return fmt.Errorf("event publish canceled: %w", ctx.Err())
		}
	}

	p.recorder.IncEventPublished(metrics.ResultFatal)
	if p.collector != nil {
		p.collector.RecordEventError()
	}
	return fmt.Errorf("failed to publish event after retries: %w", lastErr)
}

// Close drains the connection so buffered events flush before shutdown.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

func lessonDays(tt *timetable.Timetable) int {
	days := 0
	for _, day := range timetable.Weekdays {
		if len(tt.Hours(day)) > 0 {
			days++
		}
	}
	return days
}
