package observability

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// MetricsCollector tracks in-process application metrics. It backs the
// /status endpoint and CLI statistics output; Prometheus export lives in
// the metrics package.
type MetricsCollector struct {
	mu sync.RWMutex

	// Parse metrics
	parseCount        int64           // Total parses started
	parseDurations    []time.Duration // Individual parse durations (for percentiles)
	parseErrors       int64           // Total parse failures
	parsesByStatus    map[string]int64
	parsesBySource    map[string]int64 // upload, watcher, cli
	currentConcurrent int64

	// Upload metrics
	uploadsRejected map[string]int64 // reason -> count

	// Stage metrics
	stageCount     map[string]int64
	stageDurations map[string][]time.Duration

	// Export metrics
	exportsByFormat map[string]int64

	// Messaging metrics
	eventsPublished int64
	eventErrors     int64

	// Spool metrics
	spoolOperations map[string]int64 // operation -> count
	spoolSize       int64

	// HTTP metrics
	httpRequests int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		parsesByStatus:  make(map[string]int64),
		parsesBySource:  make(map[string]int64),
		uploadsRejected: make(map[string]int64),
		stageCount:      make(map[string]int64),
		stageDurations:  make(map[string][]time.Duration),
		exportsByFormat: make(map[string]int64),
		spoolOperations: make(map[string]int64),
	}
}

// RecordParseStart records the start of a timetable parse.
func (mc *MetricsCollector) RecordParseStart(source string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.parseCount++
	mc.currentConcurrent++
	mc.parsesByStatus["started"]++
	mc.parsesBySource[source]++

	slog.Debug("Parse started", "parse.count", mc.parseCount, "concurrent", mc.currentConcurrent)
}

// RecordParseEnd records the end of a timetable parse.
func (mc *MetricsCollector) RecordParseEnd(duration time.Duration, success bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.parseDurations = append(mc.parseDurations, duration)
	mc.currentConcurrent--

	if success {
		mc.parsesByStatus["completed"]++
		slog.Debug("Parse completed", "duration_ms", duration.Milliseconds())
	} else {
		mc.parseErrors++
		mc.parsesByStatus["failed"]++
		slog.Debug("Parse failed", "duration_ms", duration.Milliseconds())
	}
}

// RecordUploadRejected records an upload rejected before parsing.
func (mc *MetricsCollector) RecordUploadRejected(reason string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.uploadsRejected[reason]++
	slog.Debug("Upload rejected", "reason", reason)
}

// RecordStage records a pipeline stage execution.
func (mc *MetricsCollector) RecordStage(stageName string, duration time.Duration, success bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.stageCount[stageName]++
	mc.stageDurations[stageName] = append(mc.stageDurations[stageName], duration)

	if !success {
		mc.parseErrors++
	}

	slog.Debug("Stage completed", "stage", stageName, "duration_ms", duration.Milliseconds())
}

// RecordExport records a timetable export.
func (mc *MetricsCollector) RecordExport(format string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.exportsByFormat[format]++
	slog.Debug("Export recorded", "format", format)
}

// RecordEventPublished records a successfully published messaging event.
func (mc *MetricsCollector) RecordEventPublished() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.eventsPublished++
}

// RecordEventError records a failed messaging publish.
func (mc *MetricsCollector) RecordEventError() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.eventErrors++
}

// RecordSpoolOperation records a spool filesystem operation.
func (mc *MetricsCollector) RecordSpoolOperation(operation string, sizeBytes int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.spoolOperations[operation]++
	mc.spoolSize += sizeBytes

	slog.Debug("Spool operation", "operation", operation, "size_bytes", sizeBytes)
}

// RecordHTTPRequest records a handled HTTP request.
func (mc *MetricsCollector) RecordHTTPRequest() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.httpRequests++
}

// GetSnapshot returns a snapshot of current metrics.
func (mc *MetricsCollector) GetSnapshot() MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snapshot := MetricsSnapshot{
		Timestamp:         time.Now(),
		TotalParses:       mc.parseCount,
		CurrentConcurrent: mc.currentConcurrent,
		ParseErrors:       mc.parseErrors,
		ParsesByStatus:    copyStringInt64Map(mc.parsesByStatus),
		ParsesBySource:    copyStringInt64Map(mc.parsesBySource),
		UploadsRejected:   copyStringInt64Map(mc.uploadsRejected),
		StageCount:        copyStringInt64Map(mc.stageCount),
		ExportsByFormat:   copyStringInt64Map(mc.exportsByFormat),
		EventsPublished:   mc.eventsPublished,
		EventErrors:       mc.eventErrors,
		SpoolOperations:   copyStringInt64Map(mc.spoolOperations),
		SpoolSizeBytes:    mc.spoolSize,
		HTTPRequests:      mc.httpRequests,
	}

	// Calculate percentiles
	if len(mc.parseDurations) > 0 {
		snapshot.P50ParseDuration = calculatePercentile(mc.parseDurations, 50)
		snapshot.P95ParseDuration = calculatePercentile(mc.parseDurations, 95)
		snapshot.P99ParseDuration = calculatePercentile(mc.parseDurations, 99)
		snapshot.AvgParseDuration = calculateAverage(mc.parseDurations)
	}

	return snapshot
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Timestamp         time.Time
	TotalParses       int64
	CurrentConcurrent int64
	ParseErrors       int64
	ParsesByStatus    map[string]int64
	ParsesBySource    map[string]int64
	UploadsRejected   map[string]int64
	P50ParseDuration  time.Duration
	P95ParseDuration  time.Duration
	P99ParseDuration  time.Duration
	AvgParseDuration  time.Duration
	StageCount        map[string]int64
	ExportsByFormat   map[string]int64
	EventsPublished   int64
	EventErrors       int64
	SpoolOperations   map[string]int64
	SpoolSizeBytes    int64
	HTTPRequests      int64
}

// FormatMetrics returns a human-readable string of metrics.
func (s MetricsSnapshot) FormatMetrics() string {
	successRate := 0.0
	if s.TotalParses > 0 {
		successRate = float64(s.TotalParses-s.ParseErrors) / float64(s.TotalParses) * 100
	}

	output := fmt.Sprintf(`
=== Stundenplan Metrics ===
Timestamp: %s

Parse Metrics:
  Total Parses: %d
  Current Concurrent: %d
  Parse Errors: %d
  Success Rate: %.2f%%
  By Source: %v

Parse Durations:
  Average: %v
  P50: %v
  P95: %v
  P99: %v

Upload Metrics:
  Rejected: %v

Stage Metrics: %d stages tracked
  Details: %v

Export Metrics:
  By Format: %v

Messaging Metrics:
  Events Published: %d
  Event Errors: %d

Spool Metrics:
  Total Operations: %d
  Total Size: %d bytes (%.2f MB)

HTTP Metrics:
  Requests: %d

Status Breakdown: %v
======================
`,
		s.Timestamp.Format(time.RFC3339),
		s.TotalParses,
		s.CurrentConcurrent,
		s.ParseErrors,
		successRate,
		s.ParsesBySource,
		s.AvgParseDuration,
		s.P50ParseDuration,
		s.P95ParseDuration,
		s.P99ParseDuration,
		s.UploadsRejected,
		len(s.StageCount),
		s.StageCount,
		s.ExportsByFormat,
		s.EventsPublished,
		s.EventErrors,
		sumInt64Values(s.SpoolOperations),
		s.SpoolSizeBytes,
		float64(s.SpoolSizeBytes)/(1024*1024),
		s.HTTPRequests,
		s.ParsesByStatus,
	)

	return output
}

// Helper functions

func copyStringInt64Map(m map[string]int64) map[string]int64 {
	result := make(map[string]int64)
	for k, v := range m {
		result[k] = v
	}
	return result
}

func calculateAverage(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func calculatePercentile(durations []time.Duration, percentile int) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	// Sort durations for accurate percentile calculation
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	// Calculate index
	index := (len(sorted) * percentile) / 100
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}

func sumInt64Values(m map[string]int64) int64 {
	var sum int64
	for _, v := range m {
		sum += v
	}
	return sum
}

// GlobalMetricsCollector holds the singleton metrics collector.
var globalMetricsCollector *MetricsCollector

// InitMetricsCollector initializes the global metrics collector.
func InitMetricsCollector() *MetricsCollector {
	if globalMetricsCollector == nil {
		globalMetricsCollector = NewMetricsCollector()
	}
	return globalMetricsCollector
}

// GetMetricsCollector returns the global metrics collector.
func GetMetricsCollector() *MetricsCollector {
	if globalMetricsCollector == nil {
		return InitMetricsCollector()
	}
	return globalMetricsCollector
}

// SetMetricsCollector sets the global metrics collector (for testing).
func SetMetricsCollector(mc *MetricsCollector) {
	globalMetricsCollector = mc
}

// ResetMetricsCollector resets the global metrics collector (for testing).
func ResetMetricsCollector() {
	globalMetricsCollector = nil
}
