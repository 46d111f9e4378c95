package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/version"
)

const defaultConfigPath = "stundenplan.yaml"

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"stundenplan.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
		Listen      string `help:"API listen address (overrides config)"`
		AdminListen string `help:"Admin listen address (overrides config)"`
	} `cmd:"" help:"Run the timetable HTTP service"`

	Parse struct {
		File   string `arg:"" help:"PDF file to parse"`
		Format string `short:"f" help:"Output format: json, csv or ics" default:"json"`
		Pretty bool   `help:"Indent JSON output"`
		Out    string `short:"o" help:"Write the result to a file instead of stdout"`
	} `cmd:"" help:"Parse a single timetable PDF"`

	Watch struct {
		Dir string `short:"d" help:"Inbox directory (overrides config)"`
	} `cmd:"" help:"Convert every PDF dropped into the inbox directory"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write an example configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	kctx := kong.Parse(&CLI)

	// Bootstrap logger from flags only; replaced once the config is loaded.
	setupLogging(config.LoggingConfig{}, CLI.Verbose)
	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, slog.Default())

	switch kctx.Command() {
	case "serve":
		cfg := mustLoadConfig(adapter)
		setupLogging(cfg.Logging, CLI.Verbose)
		adapter.HandleError(runServe(cfg))
	case "parse <file>":
		cfg := mustLoadConfig(adapter)
		setupLogging(cfg.Logging, CLI.Verbose)
		adapter.HandleError(runParse(cfg))
	case "watch":
		cfg := mustLoadConfig(adapter)
		setupLogging(cfg.Logging, CLI.Verbose)
		adapter.HandleError(runWatch(cfg))
	case "init":
		adapter.HandleError(runInit())
	case "version":
		runVersion()
	}
}

// setupLogging installs the default slog logger. Logs go to stderr so the
// parse command can write results to stdout.
func setupLogging(cfg config.LoggingConfig, verbose bool) {
	level := cfg.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func mustLoadConfig(adapter *errors.CLIErrorAdapter) *config.Config {
	cfg, err := loadConfig()
	if err != nil {
		adapter.HandleError(err)
	}
	return cfg
}

// loadConfig reads the configuration file. A missing file at the default
// path falls back to built-in defaults; an explicitly named missing file
// is an error.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(CLI.Config); os.IsNotExist(err) && CLI.Config == defaultConfigPath {
		slog.Debug("No configuration file found, using defaults", "path", CLI.Config)
		return config.Default(), nil
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig,
			fmt.Sprintf("failed to load configuration from %s", CLI.Config)).
			Build()
	}
	return cfg, nil
}

func runInit() error {
	slog.Info("Initializing configuration", "path", CLI.Config, "force", CLI.Init.Force)
	if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", CLI.Config)
	return nil
}

func runVersion() {
	fmt.Printf("stundenplan %s\n", version.Version)
	fmt.Printf("  commit:     %s\n", version.GitCommit)
	fmt.Printf("  build time: %s\n", version.BuildTime)
}
