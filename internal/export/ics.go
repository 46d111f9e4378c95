package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/timetable"
)

// School slots run back to back from 08:00 in 45-minute steps.
const (
	firstSlotHour = 8
	slotMinutes   = 45
)

// ICS writes one VEVENT per lesson, each placed on the next occurrence of
// its weekday relative to now, in the Europe/Berlin timezone.
func ICS(result *timetable.BuildResult, now time.Time, w io.Writer) error {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return errors.WrapError(err, errors.CategoryExport, "Failed to render calendar export.").Build()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	localNow := now.In(loc)
	seq := 0
	for dayIndex, day := range timetable.Weekdays {
		date := nextWeekday(localNow, time.Weekday(dayIndex+1))
		for slotIndex, hour := range result.Timetable.Hours(day) {
			start := slotStart(date, hour, slotIndex, loc)
			end := start.Add(slotMinutes * time.Minute)
			for _, entry := range result.Timetable.Entries(day, hour) {
				event := cal.AddEvent(fmt.Sprintf("%s-%d@stundenplan", start.Format("20060102T150405"), seq))
				seq++
				event.SetCreatedTime(localNow)
				event.SetDtStampTime(localNow)
				event.SetModifiedAt(localNow)
				event.SetStartAt(start)
				event.SetEndAt(end)
				event.SetSummary(entry.Subject)
				event.SetLocation(entry.Room)
				event.SetDescription(describe(entry))
			}
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return errors.WrapError(err, errors.CategoryExport, "Failed to render calendar export.").Build()
	}
	return nil
}

// nextWeekday returns the date of the next target weekday, counting today.
func nextWeekday(from time.Time, target time.Weekday) time.Time {
	daysAhead := (int(target) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, daysAhead)
}

// slotStart places an hour label on the clock. Numeric labels name the
// school slot directly; anything else falls back to the position of the
// hour within its day.
func slotStart(date time.Time, hour string, slotIndex int, loc *time.Location) time.Time {
	slot := slotIndex + 1
	if n, err := strconv.Atoi(hour); err == nil && n > 0 {
		slot = n
	}
	minutes := (slot - 1) * slotMinutes
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), firstSlotHour, 0, 0, 0, loc)
	return dayStart.Add(time.Duration(minutes) * time.Minute)
}

func describe(entry timetable.LessonEntry) string {
	parts := make([]string, 0, 2)
	if entry.Teacher != "" {
		parts = append(parts, "Lehrer: "+entry.Teacher)
	}
	switch entry.Specialization {
	case timetable.SpecializationGroupA:
		parts = append(parts, "Gruppe: A")
	case timetable.SpecializationGroupB:
		parts = append(parts, "Gruppe: B")
	}
	return strings.Join(parts, "\n")
}
