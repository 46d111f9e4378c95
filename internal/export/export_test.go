package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/timetable"
)

func fixtureResult() *timetable.BuildResult {
	tt := timetable.NewTimetable()
	tt.Add("Montag", "1", timetable.LessonEntry{Subject: "Math", Teacher: "Smith", Room: "204", Specialization: timetable.SpecializationWholeClass})
	tt.Add("Montag", "2", timetable.LessonEntry{Subject: "Physik", Teacher: "Curie", Room: "112", Specialization: timetable.SpecializationGroupA})
	tt.Add("Mittwoch", "1", timetable.LessonEntry{Subject: "Sport", Teacher: "Weber", Room: "Halle", Specialization: timetable.SpecializationWholeClass})
	name := "10A"
	return &timetable.BuildResult{Timetable: tt, ClassName: &name}
}

func emptyResult() *timetable.BuildResult {
	return &timetable.BuildResult{Timetable: timetable.NewTimetable()}
}

func TestJSON_DocumentShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(fixtureResult(), false, &buf))

	want := `{"class":"10A","timetable":{"Montag":{"1":[{"subject":"Math","teacher":"Smith","room":"204","specialization":1}],` +
		`"2":[{"subject":"Physik","teacher":"Curie","room":"112","specialization":2}]},"Dienstag":{},` +
		`"Mittwoch":{"1":[{"subject":"Sport","teacher":"Weber","room":"Halle","specialization":1}]},"Donnerstag":{},"Freitag":{}}}` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestJSON_NullClassWhenUnset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(emptyResult(), false, &buf))

	assert.Contains(t, buf.String(), `"class":null`)
}

func TestJSON_Pretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(emptyResult(), true, &buf))

	assert.Contains(t, buf.String(), "{\n  \"class\": null")
}

func TestRows_CanonicalOrder(t *testing.T) {
	rows := Rows(fixtureResult().Timetable)

	require.Len(t, rows, 3)
	assert.Equal(t, &Row{Day: "Montag", Hour: "1", Subject: "Math", Teacher: "Smith", Room: "204", Specialization: 1}, rows[0])
	assert.Equal(t, "Physik", rows[1].Subject)
	assert.Equal(t, "Mittwoch", rows[2].Day)
}

func TestCSV_HeaderAndRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(fixtureResult(), &buf))

	want := "day,hour,subject,teacher,room,specialization\n" +
		"Montag,1,Math,Smith,204,1\n" +
		"Montag,2,Physik,Curie,112,2\n" +
		"Mittwoch,1,Sport,Weber,Halle,1\n"
	assert.Equal(t, want, buf.String())
}

func TestCSV_EmptyTimetableWritesHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(emptyResult(), &buf))

	assert.Equal(t, "day,hour,subject,teacher,room,specialization\n", buf.String())
}

func TestICS_OneEventPerLesson(t *testing.T) {
	// Wednesday, so Montag resolves to the following week.
	now := time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, ICS(fixtureResult(), now, &buf))
	out := buf.String()

	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("BEGIN:VEVENT")))
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Contains(t, out, "SUMMARY:Math")
	assert.Contains(t, out, "LOCATION:204")
	assert.Contains(t, out, "Lehrer: Smith")
	assert.Contains(t, out, "Gruppe: A")
	// Montag events land on 2026-01-12, Mittwoch on the same day as now.
	assert.Contains(t, out, "20260112T")
	assert.Contains(t, out, "20260107T")
}

func TestICS_EmptyTimetableHasNoEvents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ICS(emptyResult(), time.Now(), &buf))

	assert.NotContains(t, buf.String(), "BEGIN:VEVENT")
	assert.Contains(t, buf.String(), "BEGIN:VCALENDAR")
}

func TestNextWeekday(t *testing.T) {
	wednesday := time.Date(2026, 1, 7, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, 12, nextWeekday(wednesday, time.Monday).Day())
	assert.Equal(t, 7, nextWeekday(wednesday, time.Wednesday).Day())
	assert.Equal(t, 9, nextWeekday(wednesday, time.Friday).Day())
}

func TestSlotStart(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	date := time.Date(2026, 1, 12, 0, 0, 0, 0, loc)

	tests := []struct {
		name      string
		hour      string
		slotIndex int
		want      string
	}{
		{"first slot", "1", 0, "08:00"},
		{"second slot", "2", 1, "08:45"},
		{"sixth slot", "6", 5, "11:45"},
		{"label wins over position", "4", 0, "10:15"},
		{"non-numeric falls back to position", "AG", 2, "09:30"},
		{"zero falls back to position", "0", 1, "08:45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slotStart(date, tt.hour, tt.slotIndex, loc)
			assert.Equal(t, tt.want, got.Format("15:04"))
			assert.Equal(t, 12, got.Day())
		})
	}
}

func TestWrite_DispatchesByFormat(t *testing.T) {
	for _, format := range []config.OutputFormat{config.FormatJSON, config.FormatCSV, config.FormatICS} {
		var buf bytes.Buffer
		require.NoError(t, Write(format, fixtureResult(), time.Now(), &buf))
		assert.NotZero(t, buf.Len(), "format %s produced no output", format)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(config.OutputFormat("xml"), fixtureResult(), time.Now(), &bytes.Buffer{})

	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".json", Extension(config.FormatJSON))
	assert.Equal(t, ".ics", Extension(config.FormatICS))
}
