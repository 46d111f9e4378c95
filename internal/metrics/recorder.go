package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for parse and stage metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveParseDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncParseOutcome(outcome ResultLabel)
	IncUploadRejected(reason string)
	IncExport(format string)
	IncEventPublished(result ResultLabel)
	SetQueueDepth(n int)
	SetActiveWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveParseDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncParseOutcome(ResultLabel)                {}
func (NoopRecorder) IncUploadRejected(string)                   {}
func (NoopRecorder) IncExport(string)                           {}
func (NoopRecorder) IncEventPublished(ResultLabel)              {}
func (NoopRecorder) SetQueueDepth(int)                          {}
func (NoopRecorder) SetActiveWorkers(int)                       {}
