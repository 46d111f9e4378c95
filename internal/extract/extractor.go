// Package extract recovers the raw timetable grid from a PDF file.
//
// Only the first page is read: source schedules are single-page documents.
// Table detection anchors on the drawn ruling lines of the grid instead of
// whitespace gaps, which matches how the schedule tables are laid out.
package extract

import (
	"log/slog"

	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/logfields"
	"github.com/planwerk/stundenplan/internal/timetable"
)

// publicMessage is the only detail about unexpected extraction failures
// shown to callers. Specifics stay in the log and the wrapped cause.
const publicMessage = "Error processing the PDF file."

// Extractor turns a PDF file into the raw cell grid of its schedule table.
type Extractor struct {
	cfg    config.ExtractionConfig
	logger *slog.Logger
}

// New creates an extractor with the given detection thresholds.
func New(cfg config.ExtractionConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// TableFromFile opens the PDF at path and returns the largest table on the
// first page as a raw grid. A readable PDF without any detectable table
// fails with timetable.ErrNoTableData; every other failure is reported as
// an extraction error.
func (e *Extractor) TableFromFile(path string) (timetable.RawTable, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExtraction, publicMessage).Build()
	}
	defer func() { _ = r.Close() }()

	pageCount, err := r.PageCount()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExtraction, publicMessage).Build()
	}
	if pageCount == 0 {
		return nil, errors.ExtractionError(publicMessage).Build()
	}

	page, err := r.GetPage(0)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExtraction, publicMessage).Build()
	}

	fragments, err := r.ExtractTextFragments(page)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExtraction, publicMessage).Build()
	}

	lines, err := rulingLines(page)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExtraction, publicMessage).Build()
	}

	width, _ := page.Width()
	height, _ := page.Height()

	modelPage := model.NewPage(width, height)
	modelPage.Number = 1
	modelPage.RawText = toModelFragments(fragments)
	modelPage.RawLines = lines

	detected, err := e.detectTables(modelPage)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExtraction, publicMessage).Build()
	}

	table := largestTable(detected)
	if table == nil {
		e.logger.Debug("no table detected on first page",
			logfields.File(path),
			slog.Int("fragments", len(fragments)),
			slog.Int("lines", len(lines)))
		return nil, timetable.ErrNoTableData
	}

	e.logger.Debug("table detected",
		logfields.File(path),
		slog.Int("rows", table.RowCount()),
		slog.Int("cols", table.ColCount()),
		slog.Float64("confidence", table.Confidence),
		slog.Int("candidates", len(detected)))

	return tableToRaw(table), nil
}

// detectTables runs the geometric detector in line-anchored mode over the
// assembled page model.
func (e *Extractor) detectTables(page *model.Page) ([]*model.Table, error) {
	cfg := tables.DefaultConfig()
	cfg.MinRows = e.cfg.MinRows
	cfg.MinCols = e.cfg.MinCols
	cfg.MinConfidence = e.cfg.MinConfidence
	cfg.UseLines = true
	cfg.UseWhitespace = false

	detector := tables.NewGeometricDetector()
	if err := detector.Configure(cfg); err != nil {
		return nil, err
	}
	return detector.Detect(page)
}

// rulingLines decodes the page content streams and extracts the drawn line
// work, including cell borders painted as thin rectangles.
func rulingLines(page *pages.Page) ([]model.Line, error) {
	contents, err := page.Contents()
	if err != nil {
		return nil, err
	}

	var data []byte
	for _, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		decoded, err := stream.Decode()
		if err != nil {
			return nil, err
		}
		data = append(data, decoded...)
	}
	if len(data) == 0 {
		return nil, nil
	}

	extractor := graphicsstate.NewGraphicsExtractor()
	if err := extractor.ExtractFromBytes(data); err != nil {
		return nil, err
	}
	return append(extractor.ToModelLines(), extractor.ToModelRectangles()...), nil
}
