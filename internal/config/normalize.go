package config

import "fmt"

// NormalizationResult captures adjustments and warnings from the normalization pass.
type NormalizationResult struct {
	Warnings []string
}

// NormalizeConfig canonicalizes enumerated fields prior to default application.
// Recognized values are case-folded into their canonical spelling; unknown
// values are left untouched so validation can reject them with a field-named
// error. The config is mutated in place.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if c == nil {
		return res
	}
	normalizeLogging(&c.Logging, res)
	normalizeWatch(c.Watch, res)
	return res
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if raw := string(l.Level); raw != "" && logLevelNormalizer.IsValid(raw) {
		if lvl := NormalizeLogLevel(raw); raw != string(lvl) {
			res.Warnings = append(res.Warnings, warnChanged("logging.level", raw, string(lvl)))
			l.Level = lvl
		}
	}
	if raw := string(l.Format); raw != "" && logFormatNormalizer.IsValid(raw) {
		if f := NormalizeLogFormat(raw); raw != string(f) {
			res.Warnings = append(res.Warnings, warnChanged("logging.format", raw, string(f)))
			l.Format = f
		}
	}
}

func normalizeWatch(w *WatchConfig, res *NormalizationResult) {
	if w == nil {
		return
	}
	for i, raw := range w.Formats {
		if f := NormalizeOutputFormat(raw); f != "" && raw != string(f) {
			res.Warnings = append(res.Warnings, warnChanged("watch.formats", raw, string(f)))
			w.Formats[i] = string(f)
		}
	}
}

func warnChanged(field, from, to string) string {
	return fmt.Sprintf("normalized %s from '%s' to '%s'", field, from, to)
}
