package parsejob

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/planwerk/stundenplan/internal/extract"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/metrics"
	"github.com/planwerk/stundenplan/internal/observability"
	"github.com/planwerk/stundenplan/internal/timetable"
)

// Parser turns a PDF file into a timetable. Implementations return a
// non-nil result exactly when err is nil.
type Parser interface {
	Parse(ctx context.Context, path string) (*timetable.BuildResult, error)
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(ctx context.Context, path string) (*timetable.BuildResult, error)

func (f ParserFunc) Parse(ctx context.Context, path string) (*timetable.BuildResult, error) {
	return f(ctx, path)
}

// Pipeline stage names used for metrics and log context.
const (
	StageExtract = "extract"
	StageBuild   = "build"
)

// Pipeline is the production Parser: table extraction followed by the
// timetable build.
type Pipeline struct {
	extractor *extract.Extractor
	recorder  metrics.Recorder
	collector *observability.MetricsCollector
}

// NewPipeline creates the extraction and build pipeline.
func NewPipeline(extractor *extract.Extractor) *Pipeline {
	if extractor == nil {
		panic("NewPipeline: extractor is required")
	}
	return &Pipeline{
		extractor: extractor,
		recorder:  metrics.NoopRecorder{},
	}
}

// SetRecorder injects a metrics recorder (optional).
func (p *Pipeline) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	p.recorder = r
}

// SetCollector injects the in-memory stats collector (optional).
func (p *Pipeline) SetCollector(c *observability.MetricsCollector) {
	p.collector = c
}

// Parse runs both stages against the file at path.
func (p *Pipeline) Parse(ctx context.Context, path string) (*timetable.BuildResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCtxErr(err)
	}

	ctx = observability.WithStage(ctx, StageExtract)
	start := time.Now()
	raw, err := p.extractor.TableFromFile(path)
	p.observeStage(StageExtract, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	observability.DebugContext(ctx, "table grid extracted",
		slog.Int("rows", len(raw)))

	if err := ctx.Err(); err != nil {
		return nil, wrapCtxErr(err)
	}

	ctx = observability.WithStage(ctx, StageBuild)
	start = time.Now()
	result, err := timetable.Build(raw)
	p.observeStage(StageBuild, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) observeStage(stage string, duration time.Duration, err error) {
	p.recorder.ObserveStageDuration(stage, duration)
	p.recorder.IncStageResult(stage, outcomeFor(err))
	if p.collector != nil {
		p.collector.RecordStage(stage, duration, err == nil)
	}
}

func wrapCtxErr(err error) error {
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return errors.WrapError(err, errors.CategoryTimeout, "Timed out while parsing the PDF file.").Build()
	}
	return errors.WrapError(err, errors.CategoryRuntime, "parse canceled").Build()
}
