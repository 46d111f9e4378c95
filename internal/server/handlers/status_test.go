package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/observability"
	"github.com/planwerk/stundenplan/internal/parsejob"
	"github.com/planwerk/stundenplan/internal/server/responses"
)

type stubQueue struct {
	active []parsejob.Job
	recent []parsejob.Job
}

func (q *stubQueue) Length() int                { return 3 }
func (q *stubQueue) Workers() int               { return 4 }
func (q *stubQueue) Capacity() int              { return 16 }
func (q *stubQueue) ActiveJobs() []parsejob.Job { return q.active }
func (q *stubQueue) RecentJobs() []parsejob.Job { return q.recent }

func statusConfig() *config.Config {
	return &config.Config{
		Parser: config.ParserConfig{Workers: 4, QueueSize: 16, JobTimeout: "30s"},
		Server: config.ServerConfig{MaxUploadBytes: 10 << 20},
	}
}

func TestHandleStatus_OK(t *testing.T) {
	started := time.Now()
	queue := &stubQueue{
		active: []parsejob.Job{{ID: "job-1", Source: parsejob.SourceUpload, Filename: "plan.pdf", Status: parsejob.StatusRunning, CreatedAt: time.Now(), StartedAt: &started}},
		recent: []parsejob.Job{{ID: "job-0", Source: parsejob.SourceWatch, Filename: "old.pdf", Status: parsejob.StatusCompleted, CreatedAt: time.Now(), Duration: 120 * time.Millisecond}},
	}
	h := NewStatusHandlers(queue, statusConfig(), time.Now().Add(-time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var status responses.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status.Status != "running" {
		t.Fatalf("expected running status, got %q", status.Status)
	}
	if status.Queue.Workers != 4 || status.Queue.Queued != 3 || status.Queue.Capacity != 16 {
		t.Fatalf("unexpected queue summary: %+v", status.Queue)
	}
	if status.Uptime < 3599 {
		t.Fatalf("expected uptime around an hour, got %f", status.Uptime)
	}
	if len(status.ActiveJobs) != 1 || status.ActiveJobs[0].ID != "job-1" {
		t.Fatalf("unexpected active jobs: %+v", status.ActiveJobs)
	}
	if len(status.RecentJobs) != 1 || status.RecentJobs[0].DurationMS != 120 {
		t.Fatalf("unexpected recent jobs: %+v", status.RecentJobs)
	}
	if status.Config.Workers != 4 || status.Config.MaxUploadBytes != 10<<20 {
		t.Fatalf("unexpected config summary: %+v", status.Config)
	}
	if status.Config.Hash == "" {
		t.Fatalf("expected config hash, got empty string")
	}
}

func TestHandleStatus_WithCollector(t *testing.T) {
	collector := observability.NewMetricsCollector()
	collector.RecordParseStart("upload")
	collector.RecordParseEnd(50*time.Millisecond, true)

	h := NewStatusHandlers(&stubQueue{}, statusConfig(), time.Now())
	h.SetCollector(collector)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status responses.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status.Statistics.TotalParses != 1 {
		t.Fatalf("expected one recorded parse, got %d", status.Statistics.TotalParses)
	}
	if status.Statistics.ParsesBySource["upload"] != 1 {
		t.Fatalf("unexpected source breakdown: %+v", status.Statistics.ParsesBySource)
	}
}

func TestHandleStatus_MethodGate(t *testing.T) {
	h := NewStatusHandlers(&stubQueue{}, statusConfig(), time.Now())

	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
