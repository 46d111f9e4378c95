// Package spool holds uploaded PDFs on disk while they wait for parsing.
//
// Files are written once under a random name and removed by the owning job
// when parsing finishes. The age-based sweep exists for orphans left behind
// by crashes or abandoned watch inputs.
package spool

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/logfields"
)

// filePattern matches the names Save produces. The sweep only ever touches
// matching files, so pointing the spool at a shared directory cannot
// destroy foreign data.
const filePattern = "upload-*.pdf"

// Spool stores pending upload files in a single flat directory.
type Spool struct {
	dir    string
	maxAge time.Duration
	logger *slog.Logger
}

// New creates the spool directory if needed and returns the store. An
// unset directory falls back to the system temp directory.
func New(cfg config.SpoolConfig, logger *slog.Logger) (*Spool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create spool directory %s: %w", dir, err)
	}
	return &Spool{
		dir:    dir,
		maxAge: cfg.MaxAgeDuration(),
		logger: logger,
	}, nil
}

// Dir returns the spool directory path.
func (s *Spool) Dir() string {
	return s.dir
}

// Save writes the reader's content to a fresh upload file and returns its
// path. The random name keeps concurrent uploads from colliding.
func (s *Spool) Save(r io.Reader) (string, int64, error) {
	path := filepath.Join(s.dir, "upload-"+uuid.NewString()+".pdf")

	// #nosec G304 - path is constructed from the configured directory and a random name
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", 0, fmt.Errorf("create spool file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write spool file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("close spool file: %w", err)
	}

	s.logger.Debug("spooled upload", logfields.File(path), slog.Int64("size", size))
	return path, size, nil
}

// Remove deletes a spooled file. Missing files are not an error; the sweep
// may already have collected them.
func (s *Spool) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove spool file: %w", err)
	}
	return nil
}
