package export

import (
	"io"

	"github.com/gocarina/gocsv"

	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/timetable"
)

// Row is one lesson flattened for CSV output.
type Row struct {
	Day            string `csv:"day"`
	Hour           string `csv:"hour"`
	Subject        string `csv:"subject"`
	Teacher        string `csv:"teacher"`
	Room           string `csv:"room"`
	Specialization int    `csv:"specialization"`
}

// CSV writes one record per lesson in weekday and hour order.
func CSV(result *timetable.BuildResult, w io.Writer) error {
	rows := Rows(result.Timetable)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return errors.WrapError(err, errors.CategoryExport, "Failed to render CSV export.").Build()
	}
	return nil
}

// Rows flattens the timetable in its canonical order.
func Rows(tt *timetable.Timetable) []*Row {
	rows := make([]*Row, 0, tt.EntryCount())
	for _, day := range timetable.Weekdays {
		for _, hour := range tt.Hours(day) {
			for _, entry := range tt.Entries(day, hour) {
				rows = append(rows, &Row{
					Day:            day,
					Hour:           hour,
					Subject:        entry.Subject,
					Teacher:        entry.Teacher,
					Room:           entry.Room,
					Specialization: entry.Specialization,
				})
			}
		}
	}
	return rows
}
