// Package export renders a built timetable as JSON, CSV, or ICS.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/timetable"
)

// Document is the canonical JSON shape of a parse result. Class is null
// when no cell carried a class token.
type Document struct {
	Class     *string              `json:"class"`
	Timetable *timetable.Timetable `json:"timetable"`
}

// NewDocument wraps a build result for serialization.
func NewDocument(result *timetable.BuildResult) Document {
	return Document{Class: result.ClassName, Timetable: result.Timetable}
}

// JSON writes the result document to w, indented when pretty is set.
func JSON(result *timetable.BuildResult, pretty bool, w io.Writer) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(NewDocument(result)); err != nil {
		return errors.WrapError(err, errors.CategoryExport, "Failed to render JSON export.").Build()
	}
	return nil
}

// Write renders the result in the requested format. The reference time
// anchors ICS events to concrete dates.
func Write(format config.OutputFormat, result *timetable.BuildResult, now time.Time, w io.Writer) error {
	switch format {
	case config.FormatJSON:
		return JSON(result, false, w)
	case config.FormatCSV:
		return CSV(result, w)
	case config.FormatICS:
		return ICS(result, now, w)
	default:
		return errors.ValidationError(fmt.Sprintf("unknown export format %q", format)).Build()
	}
}

// Extension returns the output file suffix for a format, including the dot.
func Extension(format config.OutputFormat) string {
	return "." + string(format)
}
