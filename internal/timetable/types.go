// Package timetable turns the raw cell grid of a schedule table into a
// structured week of lessons.
//
// The model is write-once per parse: a Build call produces a fresh
// Timetable and the result is discarded after the response is rendered.
package timetable

import (
	"bytes"
	"encoding/json"
)

// Weekdays lists the five schedule days in canonical order. Column pairs in
// the source table map onto this order left to right.
var Weekdays = [...]string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag"}

// Specialization values mirror the group marker behind "/" in a class token.
// A lesson without a marker applies to the whole class; "/A" and "/B" name
// the two half-group variants.
const (
	SpecializationWholeClass = 1
	SpecializationGroupA     = 2
	SpecializationGroupB     = 3
)

// RawTable is the cell grid recovered from a document, one nullable string
// per cell. Rows may have differing lengths. A nil RawTable means no table
// was found in the document at all, which is distinct from an empty one.
type RawTable [][]*string

// LessonEntry is a single lesson occupying one (weekday, hour) slot.
type LessonEntry struct {
	Subject        string `json:"subject"`
	Teacher        string `json:"teacher"`
	Room           string `json:"room"`
	Specialization int    `json:"specialization"`
}

// Timetable holds one week of lessons keyed by weekday and hour label.
//
// Go maps are unordered, so the type tracks hour labels per day in
// first-seen order and serializes days in canonical weekday order.
type Timetable struct {
	days map[string]*daySchedule
}

type daySchedule struct {
	hourOrder []string
	slots     map[string][]LessonEntry
}

// NewTimetable returns an empty week. All five weekdays are present from
// the start so an empty day still serializes as an empty object.
func NewTimetable() *Timetable {
	days := make(map[string]*daySchedule, len(Weekdays))
	for _, day := range Weekdays {
		days[day] = &daySchedule{slots: make(map[string][]LessonEntry)}
	}
	return &Timetable{days: days}
}

// Add records a lesson in the given slot, creating the hour on first use.
//
// When the slot already holds an entry with the same subject, teacher and
// room and the two specializations are the A/B group pair, the existing
// entry is widened to the whole class instead of appending a duplicate.
// Entries that match in every field including specialization are kept as
// separate duplicates. Days outside the canonical five are ignored.
func (t *Timetable) Add(day, hour string, entry LessonEntry) {
	d, ok := t.days[day]
	if !ok {
		return
	}
	slot, seen := d.slots[hour]
	if !seen {
		d.hourOrder = append(d.hourOrder, hour)
	}
	for i := range slot {
		if slot[i].Subject != entry.Subject || slot[i].Teacher != entry.Teacher || slot[i].Room != entry.Room {
			continue
		}
		if splitGroupPair(slot[i].Specialization, entry.Specialization) {
			slot[i].Specialization = SpecializationWholeClass
			return
		}
	}
	d.slots[hour] = append(slot, entry)
}

// splitGroupPair reports whether the two specializations are the A and B
// halves of one class, in either order.
func splitGroupPair(a, b int) bool {
	return (a == SpecializationGroupA && b == SpecializationGroupB) ||
		(a == SpecializationGroupB && b == SpecializationGroupA)
}

// Hours returns the hour labels recorded for a day in first-seen order.
func (t *Timetable) Hours(day string) []string {
	d, ok := t.days[day]
	if !ok || len(d.hourOrder) == 0 {
		return nil
	}
	return append([]string(nil), d.hourOrder...)
}

// Entries returns the lessons in a slot in insertion order.
func (t *Timetable) Entries(day, hour string) []LessonEntry {
	d, ok := t.days[day]
	if !ok {
		return nil
	}
	slot := d.slots[hour]
	if len(slot) == 0 {
		return nil
	}
	return append([]LessonEntry(nil), slot...)
}

// EntryCount returns the total number of lessons across the whole week.
func (t *Timetable) EntryCount() int {
	total := 0
	for _, d := range t.days {
		for _, slot := range d.slots {
			total += len(slot)
		}
	}
	return total
}

// MarshalJSON writes days in canonical weekday order and hours in
// first-seen order. encoding/json would sort map keys lexically, which
// scrambles both.
func (t *Timetable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range Weekdays {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKey(&buf, day); err != nil {
			return nil, err
		}
		if err := t.days[day].appendJSON(&buf); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *daySchedule) appendJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, hour := range d.hourOrder {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKey(buf, hour); err != nil {
			return err
		}
		entries, err := json.Marshal(d.slots[hour])
		if err != nil {
			return err
		}
		buf.Write(entries)
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONKey(buf *bytes.Buffer, key string) error {
	encoded, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(encoded)
	buf.WriteByte(':')
	return nil
}

// BuildResult is the outcome of building one timetable from a raw grid.
// ClassName is nil when no cell carried a class token, which serializes
// as JSON null in the API response.
type BuildResult struct {
	Timetable *Timetable
	ClassName *string
}
