package extract

import (
	"strings"

	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/text"
	"golang.org/x/text/unicode/norm"

	"github.com/planwerk/stundenplan/internal/timetable"
)

// toModelFragments converts reader fragments into the page-model shape the
// table detector consumes.
func toModelFragments(fragments []text.TextFragment) []model.TextFragment {
	out := make([]model.TextFragment, len(fragments))
	for i, f := range fragments {
		out[i] = model.TextFragment{
			Text:     f.Text,
			BBox:     model.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			FontSize: f.FontSize,
			FontName: f.FontName,
		}
	}
	return out
}

// largestTable picks the detected table with the most cells. The first
// candidate wins ties, so detection order stays authoritative.
func largestTable(detected []*model.Table) *model.Table {
	var best *model.Table
	bestCells := 0
	for _, t := range detected {
		cells := t.RowCount() * t.ColCount()
		if best == nil || cells > bestCells {
			best = t
			bestCells = cells
		}
	}
	return best
}

// tableToRaw maps a detected table onto the raw grid the builder consumes.
// Cells that hold no text after normalization become nil.
func tableToRaw(table *model.Table) timetable.RawTable {
	raw := make(timetable.RawTable, 0, len(table.Rows))
	for _, row := range table.Rows {
		cells := make([]*string, 0, len(row))
		for _, c := range row {
			normalized := normalizeCellText(c.Text)
			if strings.TrimSpace(normalized) == "" {
				cells = append(cells, nil)
				continue
			}
			cells = append(cells, &normalized)
		}
		raw = append(raw, cells)
	}
	return raw
}

// normalizeCellText canonicalizes extracted cell text: Unicode NFC so
// combining sequences compare equal, NBSP to plain space, CRLF and bare CR
// to LF so block splitting sees one newline form.
func normalizeCellText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
