package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/timetable"
)

func TestLoadConfig_ExplicitMissingFileFails(t *testing.T) {
	CLI.Config = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for explicitly named missing config file")
	}
}

func TestLoadConfig_DefaultPathFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	CLI.Config = defaultConfigPath

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("expected built-in defaults, got error: %v", err)
	}
	if cfg.Server.Listen == "" {
		t.Fatal("expected default listen address to be set")
	}
	if cfg.Parser.Workers <= 0 {
		t.Fatal("expected default worker count to be set")
	}
}

func TestLoadConfig_ReadsFileAndAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := "server:\n  listen: \":18080\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	CLI.Config = path

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Listen != ":18080" {
		t.Fatalf("expected listen :18080, got %q", cfg.Server.Listen)
	}
	if cfg.Server.AdminListen == "" {
		t.Fatal("expected admin listen default to be applied")
	}
}

func TestRunInit_WritesAndRefusesOverwrite(t *testing.T) {
	t.Chdir(t.TempDir())
	CLI.Config = defaultConfigPath
	CLI.Init.Force = false

	if err := runInit(); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	if _, err := os.Stat(defaultConfigPath); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	if err := runInit(); err == nil {
		t.Fatal("expected refusal to overwrite without --force")
	}

	CLI.Init.Force = true
	if err := runInit(); err != nil {
		t.Fatalf("runInit with force: %v", err)
	}

	// The generated file must load cleanly.
	if _, err := loadConfig(); err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
}

func TestRunParse_UnknownFormat(t *testing.T) {
	CLI.Parse.File = "plan.pdf"
	CLI.Parse.Format = "xml"

	err := runParse(config.Default())
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if got := errors.GetCategory(err); got != errors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", got)
	}
}

func TestRunParse_MissingInputFile(t *testing.T) {
	CLI.Parse.File = filepath.Join(t.TempDir(), "nope.pdf")
	CLI.Parse.Format = "json"

	err := runParse(config.Default())
	if err == nil {
		t.Fatal("expected error for missing input file")
	}
	if got := errors.GetCategory(err); got != errors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", got)
	}
}

func parseResultFixture() *timetable.BuildResult {
	tt := timetable.NewTimetable()
	tt.Add("Montag", "1", timetable.LessonEntry{Subject: "Mathe", Teacher: "Kre", Room: "204", Specialization: 1})
	class := "10A"
	return &timetable.BuildResult{Timetable: tt, ClassName: &class}
}

func TestWriteResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResult(config.FormatJSON, parseResultFixture(), false, &buf); err != nil {
		t.Fatalf("writeResult: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"class":"10A"`) {
		t.Fatalf("expected compact class field, got %q", out)
	}
}

func TestWriteResult_JSONPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResult(config.FormatJSON, parseResultFixture(), true, &buf); err != nil {
		t.Fatalf("writeResult: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatal("expected indented JSON output")
	}
}

func TestWriteResult_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResult(config.FormatCSV, parseResultFixture(), false, &buf); err != nil {
		t.Fatalf("writeResult: %v", err)
	}
	if !strings.Contains(buf.String(), "Mathe") {
		t.Fatal("expected lesson subject in CSV output")
	}
}

func TestWriteResult_ICS(t *testing.T) {
	var buf bytes.Buffer
	if err := writeResult(config.FormatICS, parseResultFixture(), false, &buf); err != nil {
		t.Fatalf("writeResult: %v", err)
	}
	if !strings.Contains(buf.String(), "BEGIN:VCALENDAR") {
		t.Fatal("expected calendar envelope in ICS output")
	}
}
