package notify

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/timetable"
)

func TestNewPublisher_RequiresEnabledConfig(t *testing.T) {
	if _, err := NewPublisher(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	if _, err := NewPublisher(&config.NotifyConfig{Enabled: false, URL: "nats://127.0.0.1:4222"}); err == nil {
		t.Fatalf("expected error for disabled config")
	}
}

func TestEventJSONShape(t *testing.T) {
	class := "10A"
	event := Event{
		ID:         "job-1",
		Source:     "upload",
		Status:     statusCompleted,
		Class:      &class,
		Days:       2,
		Entries:    5,
		DurationMS: 120,
		Timestamp:  time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)

	for _, key := range []string{`"id":"job-1"`, `"source":"upload"`, `"status":"completed"`, `"class":"10A"`, `"days":2`, `"entries":5`, `"duration_ms":120`, `"ts":"2026-01-07T12:00:00Z"`} {
		if !strings.Contains(got, key) {
			t.Fatalf("payload %s missing %s", got, key)
		}
	}
	if strings.Contains(got, `"error"`) {
		t.Fatalf("empty error should be omitted, got %s", got)
	}
}

func TestEventJSONNullClass(t *testing.T) {
	data, err := json.Marshal(Event{ID: "job-2", Status: statusFailed, Error: "No table found in the PDF."})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)

	if !strings.Contains(got, `"class":null`) {
		t.Fatalf("expected null class, got %s", got)
	}
	if !strings.Contains(got, `"error":"No table found in the PDF."`) {
		t.Fatalf("expected error field, got %s", got)
	}
}

func TestLessonDays(t *testing.T) {
	tt := timetable.NewTimetable()
	if got := lessonDays(tt); got != 0 {
		t.Fatalf("empty timetable days = %d, want 0", got)
	}

	tt.Add("Montag", "1", timetable.LessonEntry{Subject: "Mathe", Specialization: timetable.SpecializationWholeClass})
	tt.Add("Montag", "2", timetable.LessonEntry{Subject: "Physik", Specialization: timetable.SpecializationWholeClass})
	tt.Add("Freitag", "1", timetable.LessonEntry{Subject: "Sport", Specialization: timetable.SpecializationWholeClass})

	if got := lessonDays(tt); got != 2 {
		t.Fatalf("days = %d, want 2", got)
	}
}
