package spool

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func backdate(t *testing.T, path string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("backdate %s: %v", path, err)
	}
}

func TestSweepRemovesOnlyStaleUploads(t *testing.T) {
	s := newTestSpool(t, "1h")

	stale, _, err := s.Save(strings.NewReader("old"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	backdate(t, stale, 2*time.Hour)

	fresh, _, err := s.Save(strings.NewReader("new"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A foreign stale file must survive the sweep untouched.
	foreign := filepath.Join(s.Dir(), "notes.txt")
	if err := os.WriteFile(foreign, []byte("keep"), 0600); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}
	backdate(t, foreign, 2*time.Hour)

	removed, err := s.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep removed %d files, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale upload still present after sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh upload removed by sweep: %v", err)
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Errorf("foreign file removed by sweep: %v", err)
	}
}

func TestSweepEmptyDirectory(t *testing.T) {
	s := newTestSpool(t, "1h")

	removed, err := s.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Sweep removed %d files from empty dir", removed)
	}
}

func TestSweepMissingDirectory(t *testing.T) {
	s := newTestSpool(t, "1h")
	if err := os.RemoveAll(s.Dir()); err != nil {
		t.Fatalf("remove spool dir: %v", err)
	}

	if _, err := s.Sweep(); err == nil {
		t.Error("Sweep succeeded on missing directory")
	}
}
