// Package watch converts PDFs dropped into an inbox directory.
//
// A fsnotify watcher reacts to file events, a per-file debounce lets copies
// settle, and a periodic gocron rescan catches anything the watcher missed.
// Results are written beside the source file; a PDF whose JSON result is
// already newer than the source is skipped, so rescans are idempotent.
package watch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/export"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/logfields"
	"github.com/planwerk/stundenplan/internal/parsejob"
	"github.com/planwerk/stundenplan/internal/timetable"
)

// Submitter runs a parse job to completion. Satisfied by *parsejob.Pool.
type Submitter interface {
	Submit(ctx context.Context, job *parsejob.Job) (*timetable.BuildResult, error)
}

// Watcher monitors an inbox directory and converts every PDF it finds.
type Watcher struct {
	dir      string
	formats  []config.OutputFormat
	debounce time.Duration
	rescan   time.Duration
	pool     Submitter
	logger   *slog.Logger

	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler
	mu        sync.Mutex
	timers    map[string]*time.Timer
	stopChan  chan struct{}
}

// New creates a watcher for the configured inbox directory, creating the
// directory if it does not exist.
func New(cfg *config.WatchConfig, pool Submitter, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil || cfg.Dir == "" {
		return nil, errors.ConfigError("watch directory is not configured").Build()
	}
	if pool == nil {
		return nil, errors.ConfigError("watch requires a parse pool").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}

	absDir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to resolve watch directory").
			WithContext("dir", cfg.Dir).
			Build()
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create watch directory").
			WithContext("dir", absDir).
			Build()
	}

	return &Watcher{
		dir:      absDir,
		formats:  outputFormats(cfg.Formats),
		debounce: cfg.DebounceDuration(),
		rescan:   cfg.RescanIntervalDuration(),
		pool:     pool,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
		stopChan: make(chan struct{}),
	}, nil
}

// outputFormats builds the render list. JSON is always written; the
// configured formats add CSV or ICS on top.
func outputFormats(raw []string) []config.OutputFormat {
	formats := []config.OutputFormat{config.FormatJSON}
	for _, r := range raw {
		f := config.NormalizeOutputFormat(r)
		if f == "" || f == config.FormatJSON {
			continue
		}
		formats = append(formats, f)
	}
	return formats
}

// Dir returns the absolute inbox path.
func (w *Watcher) Dir() string {
	return w.dir
}

// Start begins watching the inbox. PDFs already in the directory are
// converted by an initial scan; the periodic rescan repeats that sweep.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch inbox directory %s: %w", w.dir, err)
	}
	w.watcher = watcher

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(w.rescan),
		gocron.NewTask(func() { w.Scan(ctx) }),
		gocron.WithName("inbox-rescan"),
	); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to schedule inbox rescan: %w", err)
	}
	w.scheduler = scheduler

	w.logger.Info("Starting inbox watcher",
		slog.String("dir", w.dir),
		slog.Duration("debounce", w.debounce),
		slog.Duration("rescan_interval", w.rescan))

	scheduler.Start()
	go w.watchLoop(ctx)
	go w.Scan(ctx)

	return nil
}

// Stop stops the watcher. Pending debounce timers are canceled; a
// conversion already submitted to the pool keeps running there.
func (w *Watcher) Stop(_ context.Context) error {
	w.logger.Info("Stopping inbox watcher")

	close(w.stopChan)

	w.mu.Lock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}
	if w.scheduler != nil {
		if err := w.scheduler.Shutdown(); err != nil {
			w.logger.Error("Error stopping rescan scheduler", logfields.Error(err))
		}
	}
	return nil
}

// watchLoop turns file system events into debounced conversions.
func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isPDF(event.Name) {
				continue
			}

			if event.Op&fsnotify.Create == fsnotify.Create || event.Op&fsnotify.Write == fsnotify.Write {
				w.logger.Debug("Inbox file event", slog.String("op", event.Op.String()), logfields.File(event.Name))
				w.scheduleConvert(ctx, event.Name)
			} else if event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename {
				// The file is gone under this name; drop any pending timer.
				w.cancelPending(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Inbox watcher error", logfields.Error(err))
		}
	}
}

// scheduleConvert arms the debounce timer for a path, resetting it on every
// further event so a file being copied settles before conversion.
func (w *Watcher) scheduleConvert(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case <-w.stopChan:
			return
		default:
		}
		_ = w.Convert(ctx, path)
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
		delete(w.timers, path)
	}
}

// Scan walks the inbox once and converts every PDF without a current
// result. A file mid-copy fails its parse and is retried on the next scan.
func (w *Watcher) Scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Error("Failed to read inbox directory", slog.String("dir", w.dir), logfields.Error(err))
		return
	}

	converted := 0
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		default:
		}

		if entry.IsDir() || !isPDF(entry.Name()) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.upToDate(path) {
			continue
		}
		if err := w.Convert(ctx, path); err == nil {
			converted++
		}
	}

	if converted > 0 {
		w.logger.Info("Inbox scan converted files", slog.Int("count", converted))
	}
}

// Convert parses one PDF and writes the results beside it. Nothing is
// written when the parse or a render fails.
func (w *Watcher) Convert(ctx context.Context, path string) error {
	if w.upToDate(path) {
		return nil
	}

	name := filepath.Base(path)
	job := parsejob.NewJob(parsejob.SourceWatch, name, path)
	w.logger.Info("Converting inbox file", logfields.JobID(job.ID), logfields.File(name))

	result, err := w.pool.Submit(ctx, job)
	if err != nil {
		w.logger.Warn("Inbox conversion failed", logfields.File(name), logfields.Error(err))
		return err
	}

	for _, format := range w.formats {
		if err := w.writeOutput(path, format, result); err != nil {
			w.logger.Warn("Failed to write conversion result",
				logfields.File(name),
				logfields.Format(string(format)),
				logfields.Error(err))
			return err
		}
	}
	return nil
}

// writeOutput renders one format into memory first so a render failure
// leaves no file behind.
func (w *Watcher) writeOutput(path string, format config.OutputFormat, result *timetable.BuildResult) error {
	var buf bytes.Buffer
	if err := export.Write(format, result, time.Now(), &buf); err != nil {
		return err
	}

	out := outputPath(path, format)
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write conversion result").
			WithContext("path", out).
			Build()
	}
	return nil
}

// upToDate reports whether the JSON result beside path is at least as new
// as the source. A source that cannot be statted counts as up to date; it
// was removed or renamed away before the debounce fired.
func (w *Watcher) upToDate(path string) bool {
	src, err := os.Stat(path)
	if err != nil {
		return true
	}
	out, err := os.Stat(outputPath(path, config.FormatJSON))
	if err != nil {
		return false
	}
	return !out.ModTime().Before(src.ModTime())
}

func outputPath(path string, format config.OutputFormat) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + export.Extension(format)
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
