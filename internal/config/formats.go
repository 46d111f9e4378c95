package config

import "strings"

// OutputFormat enumerates the renderings the watcher can write beside a PDF.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
	FormatICS  OutputFormat = "ics"
)

// NormalizeOutputFormat converts user input (case-insensitive) into a typed format, returning empty string for unknown.
func NormalizeOutputFormat(raw string) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(FormatJSON):
		return FormatJSON
	case string(FormatCSV):
		return FormatCSV
	case string(FormatICS):
		return FormatICS
	default:
		return ""
	}
}
