package config

import "fmt"

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// ServerDefaultApplier handles server configuration defaults.
type ServerDefaultApplier struct{}

func (s *ServerDefaultApplier) Domain() string { return "server" }

func (s *ServerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.AdminListen == "" {
		cfg.Server.AdminListen = ":9090"
	}
	// Distinguish between nil slice and explicitly empty slice
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = 10 << 20
	}
	if cfg.Server.ShutdownTimeout == "" {
		cfg.Server.ShutdownTimeout = "10s"
	}
	return nil
}

// ParserDefaultApplier handles parser pool configuration defaults.
type ParserDefaultApplier struct{}

func (p *ParserDefaultApplier) Domain() string { return "parser" }

func (p *ParserDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Parser.Workers == 0 {
		cfg.Parser.Workers = 4
	}
	if cfg.Parser.QueueSize == 0 {
		cfg.Parser.QueueSize = 16
	}
	if cfg.Parser.JobTimeout == "" {
		cfg.Parser.JobTimeout = "30s"
	}
	return nil
}

// ExtractionDefaultApplier handles table detection bounds defaults.
type ExtractionDefaultApplier struct{}

func (e *ExtractionDefaultApplier) Domain() string { return "extraction" }

func (e *ExtractionDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Extraction.MinRows == 0 {
		cfg.Extraction.MinRows = 2
	}
	if cfg.Extraction.MinCols == 0 {
		cfg.Extraction.MinCols = 2
	}
	if cfg.Extraction.MinConfidence == 0 {
		cfg.Extraction.MinConfidence = 0.5
	}
	return nil
}

// SpoolDefaultApplier handles spool configuration defaults. An empty Dir is
// kept empty and resolved to os.TempDir() by the spool itself.
type SpoolDefaultApplier struct{}

func (s *SpoolDefaultApplier) Domain() string { return "spool" }

func (s *SpoolDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Spool.MaxAge == "" {
		cfg.Spool.MaxAge = "1h"
	}
	if cfg.Spool.SweepInterval == "" {
		cfg.Spool.SweepInterval = "15m"
	}
	return nil
}

// WatchDefaultApplier handles inbox watcher configuration defaults.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch == nil {
		cfg.Watch = &WatchConfig{}
	}
	if cfg.Watch.Dir == "" {
		cfg.Watch.Dir = "./inbox"
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "2s"
	}
	if cfg.Watch.RescanInterval == "" {
		cfg.Watch.RescanInterval = "5m"
	}
	if cfg.Watch.Formats == nil {
		cfg.Watch.Formats = []string{string(FormatJSON)}
	}
	return nil
}

// NotifyDefaultApplier handles NATS publisher configuration defaults.
// Publishing stays disabled unless the config enables it explicitly.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify == nil {
		cfg.Notify = &NotifyConfig{}
	}
	if cfg.Notify.URL == "" {
		cfg.Notify.URL = "nats://127.0.0.1:4222"
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "stundenplan.parsed"
	}
	return nil
}

// LoggingDefaultApplier handles logging configuration defaults.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

// MetricsDefaultApplier handles metrics configuration defaults. An omitted
// metrics section means enabled.
type MetricsDefaultApplier struct{}

func (m *MetricsDefaultApplier) Domain() string { return "metrics" }

func (m *MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{Enabled: true}
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	return nil
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&ServerDefaultApplier{},
			&ParserDefaultApplier{},
			&ExtractionDefaultApplier{},
			&SpoolDefaultApplier{},
			&WatchDefaultApplier{},
			&NotifyDefaultApplier{},
			&LoggingDefaultApplier{},
			&MetricsDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// GetApplierByDomain returns a specific domain applier (useful for testing).
func (c *CompositeDefaultApplier) GetApplierByDomain(domain string) DefaultApplier {
	for _, applier := range c.appliers {
		if applier.Domain() == domain {
			return applier
		}
	}
	return nil
}
