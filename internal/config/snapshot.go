package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of parse-affecting configuration fields.
// It is intentionally narrower than full serialization so that unrelated
// config edits do not change the reported hash. Slice fields are
// order-insensitive (sorted prior to hashing). Callers SHOULD run
// NormalizeConfig and default application before computing a snapshot.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) {
		h.Write([]byte(strings.Join(parts, "=")))
		h.Write([]byte{0})
	}
	w("parser.workers", strconv.Itoa(c.Parser.Workers))
	w("parser.queue_size", strconv.Itoa(c.Parser.QueueSize))
	w("parser.job_timeout", c.Parser.JobTimeout)
	w("extraction.min_rows", strconv.Itoa(c.Extraction.MinRows))
	w("extraction.min_cols", strconv.Itoa(c.Extraction.MinCols))
	w("extraction.min_confidence", strconv.FormatFloat(c.Extraction.MinConfidence, 'g', -1, 64))
	w("server.max_upload_bytes", strconv.FormatInt(c.Server.MaxUploadBytes, 10))
	if c.Watch != nil && len(c.Watch.Formats) > 0 {
		formats := append([]string{}, c.Watch.Formats...)
		sort.Strings(formats)
		w("watch.formats", strings.Join(formats, ","))
	}
	if c.Notify != nil {
		w("notify.enabled", strconv.FormatBool(c.Notify.Enabled))
		w("notify.subject", c.Notify.Subject)
	}
	w("logging.level", string(c.Logging.Level))
	w("logging.format", string(c.Logging.Format))
	return hex.EncodeToString(h.Sum(nil))
}
