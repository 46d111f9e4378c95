package timetable

import (
	"strings"

	"github.com/planwerk/stundenplan/internal/foundation/errors"
)

// headerRows is the number of leading rows carrying weekday names and dates
// rather than lessons.
const headerRows = 3

// ErrNoTableData is returned when the document yielded no table grid at all.
var ErrNoTableData = errors.DocumentError("No table found in the PDF.").Build()

// Build converts a raw cell grid into a structured week.
//
// A nil grid fails with ErrNoTableData. Any non-nil grid succeeds, even an
// empty one or one shorter than the header block; malformed rows and cells
// are skipped rather than reported. Build has no side effects and the same
// grid always produces the same result.
func Build(raw RawTable) (*BuildResult, error) {
	if raw == nil {
		return nil, ErrNoTableData
	}
	b := builder{timetable: NewTimetable()}
	if len(raw) > headerRows {
		for _, row := range raw[headerRows:] {
			b.consumeRow(row)
		}
	}
	return &BuildResult{Timetable: b.timetable, ClassName: b.className}, nil
}

// builder carries the per-call state of one Build pass.
type builder struct {
	timetable *Timetable
	className *string
}

func (b *builder) consumeRow(row []*string) {
	hour := hourLabel(row)
	if hour == "" {
		return
	}
	for i := 1; i < len(row); i++ {
		// Two columns per weekday, left to right.
		dayIndex := (i - 1) / 2
		if dayIndex >= len(Weekdays) {
			continue
		}
		if row[i] == nil {
			continue
		}
		text := strings.TrimSpace(*row[i])
		if text == "" {
			continue
		}
		b.consumeCell(Weekdays[dayIndex], hour, text)
	}
}

// hourLabel reads the first cell of a row as the hour label: surrounding
// whitespace trimmed, then trailing "." characters stripped. An empty
// result marks the row as a non-lesson row.
func hourLabel(row []*string) string {
	if len(row) == 0 || row[0] == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(*row[0]), ".")
}

// consumeCell splits a cell into line blocks and consumes them pairwise:
// block 2k names class and subject, block 2k+1 teacher and room. An odd
// trailing block is a lesson without a teacher/room line.
func (b *builder) consumeCell(day, hour, text string) {
	blocks := strings.Split(text, "\n")
	for k := 0; k < len(blocks); k += 2 {
		teacherRoom := ""
		if k+1 < len(blocks) {
			teacherRoom = blocks[k+1]
		}
		b.consumeLesson(day, hour, blocks[k], teacherRoom)
	}
}

func (b *builder) consumeLesson(day, hour, classSubject, teacherRoom string) {
	schoolClass, subject := splitCompound(classSubject)
	teacher, room := splitCompound(teacherRoom)
	baseClass, specialization := splitSpecialization(schoolClass)

	// The first non-empty class token of the whole grid names the class.
	if b.className == nil && baseClass != "" {
		name := baseClass
		b.className = &name
	}

	b.timetable.Add(day, hour, LessonEntry{
		Subject:        subject,
		Teacher:        teacher,
		Room:           room,
		Specialization: specialization,
	})
}

// splitCompound splits a compound field on the first "--". Without a
// separator the whole field is the left part and the right part is empty.
func splitCompound(field string) (string, string) {
	left, right, _ := strings.Cut(field, "--")
	return strings.TrimSpace(left), strings.TrimSpace(right)
}

// splitSpecialization splits a class token on the first "/". The marker
// behind the slash selects the group: "A" and "B" (case-insensitive) are
// the two half groups, anything else falls back to the whole class.
func splitSpecialization(schoolClass string) (string, int) {
	base, marker, found := strings.Cut(schoolClass, "/")
	if !found {
		return schoolClass, SpecializationWholeClass
	}
	base = strings.TrimSpace(base)
	switch strings.ToUpper(strings.TrimSpace(marker)) {
	case "A":
		return base, SpecializationGroupA
	case "B":
		return base, SpecializationGroupB
	default:
		return base, SpecializationWholeClass
	}
}
