package config

import "time"

// Config represents the complete service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Parser     ParserConfig     `yaml:"parser"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Spool      SpoolConfig      `yaml:"spool"`
	Watch      *WatchConfig     `yaml:"watch,omitempty"`
	Notify     *NotifyConfig    `yaml:"notify,omitempty"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    *MetricsConfig   `yaml:"metrics,omitempty"`
}

// ServerConfig represents HTTP server configuration. The main listener serves
// uploads and exports, the admin listener serves health and metrics.
type ServerConfig struct {
	Listen          string   `yaml:"listen"`
	AdminListen     string   `yaml:"admin_listen"`
	CORSOrigins     []string `yaml:"cors_origins"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
}

// ShutdownTimeoutDuration returns the parsed connection drain grace period.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// ParserConfig tunes the worker pool that runs PDF parsing off the request
// goroutines.
type ParserConfig struct {
	Workers    int    `yaml:"workers"`
	QueueSize  int    `yaml:"queue_size"`
	JobTimeout string `yaml:"job_timeout"`
}

// JobTimeoutDuration returns the parsed per-job deadline.
func (p ParserConfig) JobTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(p.JobTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// ExtractionConfig bounds table detection on the PDF page. Tables smaller than
// the minima are not considered timetable candidates.
type ExtractionConfig struct {
	MinRows       int     `yaml:"min_rows"`
	MinCols       int     `yaml:"min_cols"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// SpoolConfig controls temp-file spooling of uploaded documents. An empty Dir
// means os.TempDir().
type SpoolConfig struct {
	Dir           string `yaml:"dir"`
	MaxAge        string `yaml:"max_age"`
	SweepInterval string `yaml:"sweep_interval"`
}

// MaxAgeDuration returns how old a spooled file may get before the janitor
// removes it.
func (s SpoolConfig) MaxAgeDuration() time.Duration {
	d, err := time.ParseDuration(s.MaxAge)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// SweepIntervalDuration returns the parsed janitor sweep interval.
func (s SpoolConfig) SweepIntervalDuration() time.Duration {
	d, err := time.ParseDuration(s.SweepInterval)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// WatchConfig configures inbox directory watching. Each stable PDF in the
// directory is parsed and its results written beside it in the configured
// formats.
type WatchConfig struct {
	Dir            string   `yaml:"dir"`
	Debounce       string   `yaml:"debounce"`
	RescanInterval string   `yaml:"rescan_interval"`
	Formats        []string `yaml:"formats"`
}

// DebounceDuration returns the parsed settle delay applied after a file event.
func (w *WatchConfig) DebounceDuration() time.Duration {
	if w == nil {
		return 2 * time.Second
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// RescanIntervalDuration returns the parsed periodic full-rescan interval.
func (w *WatchConfig) RescanIntervalDuration() time.Duration {
	if w == nil {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(w.RescanInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// NotifyConfig configures the NATS publisher for parse result events.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig gates the Prometheus registry exposed on the admin listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}
