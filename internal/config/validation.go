package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

// newConfigurationValidator creates a comprehensive configuration validator.
func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validateServer(); err != nil {
		return err
	}
	if err := cv.validateParser(); err != nil {
		return err
	}
	if err := cv.validateExtraction(); err != nil {
		return err
	}
	if err := cv.validateSpool(); err != nil {
		return err
	}
	if err := cv.validateWatch(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	return cv.validateLogging()
}

func (cv *configurationValidator) validateServer() error {
	s := cv.config.Server
	if strings.TrimSpace(s.Listen) == "" {
		return errors.New("server.listen must not be empty")
	}
	if strings.TrimSpace(s.AdminListen) == "" {
		return errors.New("server.admin_listen must not be empty")
	}
	if s.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", s.MaxUploadBytes)
	}
	return cv.validatePositiveDuration("server.shutdown_timeout", s.ShutdownTimeout)
}

func (cv *configurationValidator) validateParser() error {
	p := cv.config.Parser
	if p.Workers <= 0 {
		return fmt.Errorf("parser.workers must be positive, got %d", p.Workers)
	}
	if p.QueueSize <= 0 {
		return fmt.Errorf("parser.queue_size must be positive, got %d", p.QueueSize)
	}
	return cv.validatePositiveDuration("parser.job_timeout", p.JobTimeout)
}

func (cv *configurationValidator) validateExtraction() error {
	e := cv.config.Extraction
	if e.MinRows < 0 {
		return fmt.Errorf("extraction.min_rows must not be negative, got %d", e.MinRows)
	}
	if e.MinCols < 0 {
		return fmt.Errorf("extraction.min_cols must not be negative, got %d", e.MinCols)
	}
	if e.MinConfidence < 0 || e.MinConfidence > 1 {
		return fmt.Errorf("extraction.min_confidence must be between 0 and 1, got %g", e.MinConfidence)
	}
	return nil
}

func (cv *configurationValidator) validateSpool() error {
	if err := cv.validatePositiveDuration("spool.max_age", cv.config.Spool.MaxAge); err != nil {
		return err
	}
	return cv.validatePositiveDuration("spool.sweep_interval", cv.config.Spool.SweepInterval)
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if w == nil {
		return nil
	}
	if strings.TrimSpace(w.Dir) == "" {
		return errors.New("watch.dir must not be empty")
	}
	if err := cv.validatePositiveDuration("watch.debounce", w.Debounce); err != nil {
		return err
	}
	if err := cv.validatePositiveDuration("watch.rescan_interval", w.RescanInterval); err != nil {
		return err
	}
	for _, f := range w.Formats {
		if NormalizeOutputFormat(f) == "" {
			return fmt.Errorf("watch.formats: unknown format %q (valid: json, csv, ics)", f)
		}
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if n == nil || !n.Enabled {
		return nil
	}
	if strings.TrimSpace(n.URL) == "" {
		return errors.New("notify.url must not be empty when notify is enabled")
	}
	if strings.TrimSpace(n.Subject) == "" {
		return errors.New("notify.subject must not be empty when notify is enabled")
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	l := cv.config.Logging
	if _, err := ValidateLogLevel(string(l.Level)); err != nil {
		return err
	}
	if _, err := ValidateLogFormat(string(l.Format)); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validatePositiveDuration(field, raw string) error {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", field, raw)
	}
	return nil
}
