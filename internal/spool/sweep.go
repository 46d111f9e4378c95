package spool

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/planwerk/stundenplan/internal/logfields"
)

// Sweep removes spooled files older than the configured maximum age and
// returns how many were deleted. Individual delete failures are logged and
// skipped so one stuck file cannot stall the janitor.
func (s *Spool) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read spool directory: %w", err)
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(filePattern, entry.Name()); !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn("failed to sweep spool file", logfields.File(path), logfields.Error(err))
			}
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("swept stale spool files", slog.Int("removed", removed))
	}
	return removed, nil
}
