package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	stageDuration   *prom.HistogramVec
	parseDuration   prom.Histogram
	stageResults    *prom.CounterVec
	parseOutcome    *prom.CounterVec
	uploadsRejected *prom.CounterVec
	exports         *prom.CounterVec
	eventsPublished *prom.CounterVec
	queueDepth      prom.Gauge
	activeWorkers   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "stundenplan",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual parse stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.parseDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "stundenplan",
			Name:      "parse_duration_seconds",
			Help:      "Total parse duration from raw PDF to timetable",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stundenplan",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.parseOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stundenplan",
			Name:      "parse_outcomes_total",
			Help:      "Parse outcomes by final status",
		}, []string{"outcome"})
		pr.uploadsRejected = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stundenplan",
			Name:      "uploads_rejected_total",
			Help:      "Uploads rejected before parsing, by reason",
		}, []string{"reason"})
		pr.exports = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stundenplan",
			Name:      "exports_total",
			Help:      "Timetable exports by output format",
		}, []string{"format"})
		pr.eventsPublished = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "stundenplan",
			Name:      "events_published_total",
			Help:      "Parse result events published to the broker",
		}, []string{"result"})
		pr.queueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "stundenplan",
			Name:      "queue_depth",
			Help:      "Jobs waiting in the parse queue",
		})
		pr.activeWorkers = prom.NewGauge(prom.GaugeOpts{
			Namespace: "stundenplan",
			Name:      "active_workers",
			Help:      "Workers currently processing parse jobs",
		})
		reg.MustRegister(pr.stageDuration, pr.parseDuration, pr.stageResults, pr.parseOutcome, pr.uploadsRejected, pr.exports, pr.eventsPublished, pr.queueDepth, pr.activeWorkers)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveParseDuration(d time.Duration) {
	if p == nil || p.parseDuration == nil {
		return
	}
	p.parseDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncParseOutcome(outcome ResultLabel) {
	if p == nil || p.parseOutcome == nil {
		return
	}
	p.parseOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncUploadRejected(reason string) {
	if p == nil || p.uploadsRejected == nil {
		return
	}
	p.uploadsRejected.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) IncExport(format string) {
	if p == nil || p.exports == nil {
		return
	}
	p.exports.WithLabelValues(format).Inc()
}

func (p *PrometheusRecorder) IncEventPublished(result ResultLabel) {
	if p == nil || p.eventsPublished == nil {
		return
	}
	p.eventsPublished.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil || p.queueDepth == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}

func (p *PrometheusRecorder) SetActiveWorkers(n int) {
	if p == nil || p.activeWorkers == nil {
		return
	}
	p.activeWorkers.Set(float64(n))
}
