// Package handlers provides HTTP handlers for PDF upload and export endpoints.
package handlers

import (
	"bytes"
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/export"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/logfields"
	"github.com/planwerk/stundenplan/internal/metrics"
	"github.com/planwerk/stundenplan/internal/observability"
	"github.com/planwerk/stundenplan/internal/parsejob"
	"github.com/planwerk/stundenplan/internal/timetable"
)

const (
	pdfContentType    = "application/pdf"
	uploadFieldName   = "file"
	defaultUploadName = "upload.pdf"
)

// ParseSubmitter runs a parse job and waits for its result.
type ParseSubmitter interface {
	Submit(ctx context.Context, job *parsejob.Job) (*timetable.BuildResult, error)
}

// Spooler stores upload bytes on disk for the file-based extractor.
type Spooler interface {
	Save(r io.Reader) (path string, size int64, err error)
	Remove(path string) error
}

// UploadHandlers contains upload and synchronous export HTTP handlers.
type UploadHandlers struct {
	pool         ParseSubmitter
	spool        Spooler
	maxBytes     int64
	recorder     metrics.Recorder
	collector    *observability.MetricsCollector
	errorAdapter *errors.HTTPErrorAdapter
}

// NewUploadHandlers creates a new upload handlers instance.
func NewUploadHandlers(pool ParseSubmitter, spool Spooler, maxBytes int64) *UploadHandlers {
	return &UploadHandlers{
		pool:         pool,
		spool:        spool,
		maxBytes:     maxBytes,
		recorder:     metrics.NoopRecorder{},
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// SetRecorder injects a metrics recorder. Passing nil restores the noop recorder.
func (h *UploadHandlers) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	h.recorder = r
}

// SetCollector injects the in-process metrics collector (optional).
func (h *UploadHandlers) SetCollector(c *observability.MetricsCollector) {
	h.collector = c
}

// HandleUpload parses an uploaded PDF and answers the extracted timetable as JSON.
func (h *UploadHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	result, ok := h.parseUpload(w, r)
	if !ok {
		return
	}

	if err := writeJSONPretty(w, r, http.StatusOK, export.NewDocument(result)); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write timetable response").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

// HandleExportCSV parses an uploaded PDF and answers a CSV attachment.
func (h *UploadHandlers) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := h.parseUpload(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.CSV(result, &buf); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="stundenplan.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing CSV response body", logfields.Error(err))
		return
	}
	h.recordExport(config.FormatCSV)
}

// HandleExportICS parses an uploaded PDF and answers an iCalendar attachment.
func (h *UploadHandlers) HandleExportICS(w http.ResponseWriter, r *http.Request) {
	result, ok := h.parseUpload(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.ICS(result, time.Now(), &buf); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="stundenplan.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed writing ICS response body", logfields.Error(err))
		return
	}
	h.recordExport(config.FormatICS)
}

// parseUpload implements the shared upload contract: read the PDF from a
// multipart form or the raw body, spool it, and run it through the pool.
// It writes the error response itself when the upload is rejected or the
// parse fails, returning ok=false.
func (h *UploadHandlers) parseUpload(w http.ResponseWriter, r *http.Request) (*timetable.BuildResult, bool) {
	if r.Method != http.MethodPost {
		err := errors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "POST").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, filename, err := h.openUpload(r)
	if err != nil {
		h.reject(w, r, err)
		return nil, false
	}
	defer func() { _ = file.Close() }()

	path, size, err := h.spool.Save(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if !stdErrors.As(err, &maxErr) {
			err = errors.WrapError(err, errors.CategoryFileSystem, "Error processing the PDF file.").Build()
		}
		h.reject(w, r, err)
		return nil, false
	}

	job := parsejob.NewJob(parsejob.SourceUpload, filename, path)
	observability.InfoContext(r.Context(), "upload accepted",
		logfields.JobID(job.ID),
		logfields.File(filename),
		logfields.ContentLength(size))

	result, err := h.pool.Submit(r.Context(), job)
	if err != nil {
		// Jobs rejected at the queue never run, so nothing will close Done.
		if errors.HasCategory(err, errors.CategoryExhausted) || errors.HasCategory(err, errors.CategoryInternal) {
			h.removeSpooled(path)
		} else {
			h.cleanupWhenDone(job, path)
		}
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return nil, false
	}

	h.cleanupWhenDone(job, path)
	return result, true
}

// openUpload returns the PDF stream from a multipart form or the raw body.
// The declared content type must be application/pdf in both cases.
func (h *UploadHandlers) openUpload(r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if strings.HasPrefix(mediaType, "multipart/") {
		file, header, err := r.FormFile(uploadFieldName)
		if err != nil {
			if stdErrors.Is(err, http.ErrMissingFile) {
				return nil, "", errors.ValidationError("upload form field \"file\" is missing").Build()
			}
			return nil, "", err
		}
		partType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
		if partType != pdfContentType {
			_ = file.Close()
			return nil, "", errors.ValidationError("Only PDF files are allowed.").
				WithContext("content_type", partType).
				Build()
		}
		name := header.Filename
		if name == "" {
			name = defaultUploadName
		}
		return file, name, nil
	}

	if mediaType != pdfContentType {
		return nil, "", errors.ValidationError("Only PDF files are allowed.").
			WithContext("content_type", mediaType).
			Build()
	}
	return r.Body, defaultUploadName, nil
}

// reject writes the error response for an upload that never reached the
// pool and counts it. Body size violations map to 413, everything else
// goes through the category mapping.
func (h *UploadHandlers) reject(w http.ResponseWriter, r *http.Request, err error) {
	h.countRejected(rejectReason(err))

	var maxErr *http.MaxBytesError
	if stdErrors.As(err, &maxErr) {
		verr := errors.ValidationError("The uploaded file is too large.").
			WithContext("max_bytes", h.maxBytes).
			Build()
		payload := h.errorAdapter.FormatErrorResponse(verr)
		if werr := writeJSON(w, http.StatusRequestEntityTooLarge, payload); werr != nil {
			slog.Error("failed writing upload rejection", logfields.Error(werr))
		}
		return
	}

	h.errorAdapter.WriteErrorResponse(w, r, err)
}

// rejectReason buckets an upload rejection for the metrics counter.
func rejectReason(err error) string {
	var maxErr *http.MaxBytesError
	switch {
	case stdErrors.As(err, &maxErr):
		return "too_large"
	case errors.HasCategory(err, errors.CategoryValidation):
		return "content_type"
	default:
		return "io"
	}
}

func (h *UploadHandlers) countRejected(reason string) {
	h.recorder.IncUploadRejected(reason)
	if h.collector != nil {
		h.collector.RecordUploadRejected(reason)
	}
}

// cleanupWhenDone removes the spooled file once the pool is finished with it.
// The job keeps running when the caller abandons the wait, so removal keys
// off the job, not the request.
func (h *UploadHandlers) cleanupWhenDone(job *parsejob.Job, path string) {
	select {
	case <-job.Done():
		h.removeSpooled(path)
	default:
		go func() {
			<-job.Done()
			h.removeSpooled(path)
		}()
	}
}

func (h *UploadHandlers) removeSpooled(path string) {
	if err := h.spool.Remove(path); err != nil {
		slog.Warn("Failed to remove spooled upload", logfields.File(path), logfields.Error(err))
	}
}

func (h *UploadHandlers) recordExport(format config.OutputFormat) {
	h.recorder.IncExport(string(format))
	if h.collector != nil {
		h.collector.RecordExport(string(format))
	}
}
