package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env if present; a missing file is the normal case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Normalization pass (case-fold enumerations) before defaults so canonical
	// values drive default application.
	if nres := NormalizeConfig(&config); nres != nil && len(nres.Warnings) > 0 {
		for _, w := range nres.Warnings {
			fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
		}
	}

	if err := applyDefaults(&config); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with all defaults applied and no file read.
// One-shot commands use it when no configuration file is given.
func Default() *Config {
	config := &Config{}
	_ = applyDefaults(config)
	return config
}

// applyDefaults applies default values to configuration
func applyDefaults(config *Config) error {
	applier := NewDefaultApplier()
	return applier.ApplyDefaults(config)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	return ValidateConfig(config)
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Server: ServerConfig{
			Listen:          ":8080",
			AdminListen:     ":9090",
			CORSOrigins:     []string{"http://localhost:3000"},
			MaxUploadBytes:  10 << 20,
			ShutdownTimeout: "10s",
		},
		Parser: ParserConfig{
			Workers:    4,
			QueueSize:  16,
			JobTimeout: "30s",
		},
		Extraction: ExtractionConfig{
			MinRows:       2,
			MinCols:       2,
			MinConfidence: 0.5,
		},
		Spool: SpoolConfig{
			MaxAge:        "1h",
			SweepInterval: "15m",
		},
		Watch: &WatchConfig{
			Dir:            "./inbox",
			Debounce:       "2s",
			RescanInterval: "5m",
			Formats:        []string{"json"},
		},
		Notify: &NotifyConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Subject: "stundenplan.parsed",
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
		Metrics: &MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
