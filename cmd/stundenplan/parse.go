package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/export"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/parsejob"
	"github.com/planwerk/stundenplan/internal/timetable"
)

func runParse(cfg *config.Config) error {
	format := config.NormalizeOutputFormat(CLI.Parse.Format)
	if format == "" {
		return errors.ValidationError(
			fmt.Sprintf("unknown output format %q (expected json, csv or ics)", CLI.Parse.Format)).
			Build()
	}

	path, err := filepath.Abs(CLI.Parse.File)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "failed to resolve input path").Build()
	}
	if _, err := os.Stat(path); err != nil {
		return errors.WrapError(err, errors.CategoryValidation,
			fmt.Sprintf("cannot read %s", CLI.Parse.File)).
			Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, _ := newParsePool(cfg, nil)
	pool.Start(ctx)
	defer pool.Stop(ctx)

	job := parsejob.NewJob(parsejob.SourceCLI, filepath.Base(path), path)
	result, err := pool.Submit(ctx, job)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if CLI.Parse.Out != "" {
		f, err := os.Create(CLI.Parse.Out)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output file").
				WithContext("path", CLI.Parse.Out).
				Build()
		}
		defer f.Close()
		out = f
	}

	return writeResult(format, result, CLI.Parse.Pretty, out)
}

// writeResult renders the timetable in the requested format. Pretty only
// affects JSON.
func writeResult(format config.OutputFormat, result *timetable.BuildResult, pretty bool, w io.Writer) error {
	if format == config.FormatJSON {
		return export.JSON(result, pretty, w)
	}
	return export.Write(format, result, time.Now(), w)
}
