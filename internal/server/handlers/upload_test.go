package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/planwerk/stundenplan/internal/config"
	"github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/parsejob"
	"github.com/planwerk/stundenplan/internal/timetable"
)

type stubPool struct {
	result *timetable.BuildResult
	err    error
	jobs   []*parsejob.Job
}

func (p *stubPool) Submit(_ context.Context, job *parsejob.Job) (*timetable.BuildResult, error) {
	p.jobs = append(p.jobs, job)
	return p.result, p.err
}

type stubSpool struct {
	saved   int
	removed []string
}

func (s *stubSpool) Save(r io.Reader) (string, int64, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return "", 0, fmt.Errorf("write spool file: %w", err)
	}
	s.saved++
	return fmt.Sprintf("/tmp/spool/upload-%d.pdf", s.saved), n, nil
}

func (s *stubSpool) Remove(path string) error {
	s.removed = append(s.removed, path)
	return nil
}

func uploadResult() *timetable.BuildResult {
	tt := timetable.NewTimetable()
	tt.Add("Montag", "1", timetable.LessonEntry{Subject: "Mathe", Teacher: "Kre", Room: "204", Specialization: 1})
	class := "10A"
	return &timetable.BuildResult{Timetable: tt, ClassName: &class}
}

func pdfRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	body := bytes.NewBufferString("%PDF-1.4 stub")
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", "application/pdf")
	return req
}

func multipartRequest(t *testing.T, target, fieldName, partType string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="stundenplan.pdf"`, fieldName))
	header.Set("Content-Type", partType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 stub")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleUpload_RawBody(t *testing.T) {
	spool := &stubSpool{}
	h := NewUploadHandlers(&stubPool{result: uploadResult()}, spool, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleUpload(rec, pdfRequest(t, "/upload"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"class":"10A"`) {
		t.Fatalf("expected class in response, got %s", body)
	}
	if !strings.Contains(body, `"Montag"`) || !strings.Contains(body, `"Mathe"`) {
		t.Fatalf("expected timetable content, got %s", body)
	}
	if spool.saved != 1 {
		t.Fatalf("expected one spooled file, got %d", spool.saved)
	}
}

func TestHandleUpload_Multipart(t *testing.T) {
	pool := &stubPool{result: uploadResult()}
	h := NewUploadHandlers(pool, &stubSpool{}, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleUpload(rec, multipartRequest(t, "/upload", "file", "application/pdf"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(pool.jobs) != 1 {
		t.Fatalf("expected one submitted job, got %d", len(pool.jobs))
	}
	if pool.jobs[0].Filename != "stundenplan.pdf" {
		t.Fatalf("expected original filename on job, got %q", pool.jobs[0].Filename)
	}
	if pool.jobs[0].Source != parsejob.SourceUpload {
		t.Fatalf("expected upload source, got %q", pool.jobs[0].Source)
	}
}

func TestHandleUpload_Pretty(t *testing.T) {
	h := NewUploadHandlers(&stubPool{result: uploadResult()}, &stubSpool{}, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleUpload(rec, pdfRequest(t, "/upload?pretty=1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "\n  \"class\"") {
		t.Fatalf("expected indented output, got %s", rec.Body.String())
	}
}

func TestHandleUpload_RejectsWrongContentType(t *testing.T) {
	spool := &stubSpool{}
	h := NewUploadHandlers(&stubPool{result: uploadResult()}, spool, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("hello"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.HandleUpload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Only PDF files are allowed.") {
		t.Fatalf("expected rejection message, got %s", rec.Body.String())
	}
	if spool.saved != 0 {
		t.Fatalf("expected nothing spooled, got %d", spool.saved)
	}
}

func TestHandleUpload_RejectsWrongPartType(t *testing.T) {
	h := NewUploadHandlers(&stubPool{result: uploadResult()}, &stubSpool{}, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleUpload(rec, multipartRequest(t, "/upload", "file", "application/octet-stream"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Only PDF files are allowed.") {
		t.Fatalf("expected rejection message, got %s", rec.Body.String())
	}
}

func TestHandleUpload_MissingFileField(t *testing.T) {
	h := NewUploadHandlers(&stubPool{result: uploadResult()}, &stubSpool{}, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleUpload(rec, multipartRequest(t, "/upload", "document", "application/pdf"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "upload form field") {
		t.Fatalf("expected missing field message, got %s", rec.Body.String())
	}
}

func TestHandleUpload_OversizedBody(t *testing.T) {
	spool := &stubSpool{}
	h := NewUploadHandlers(&stubPool{result: uploadResult()}, spool, 8)

	rec := httptest.NewRecorder()
	h.HandleUpload(rec, pdfRequest(t, "/upload"))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "too large") {
		t.Fatalf("expected size rejection message, got %s", rec.Body.String())
	}
}

func TestHandleUpload_QueueFull(t *testing.T) {
	spool := &stubSpool{}
	pool := &stubPool{err: errors.ExhaustedError("parse queue is full").Build()}
	h := NewUploadHandlers(pool, spool, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleUpload(rec, pdfRequest(t, "/upload"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if len(spool.removed) != 1 {
		t.Fatalf("expected rejected upload removed from spool, got %v", spool.removed)
	}
}

func TestHandleUpload_NoTableFound(t *testing.T) {
	pool := &stubPool{err: errors.DocumentError("No table found in the PDF.").Build()}
	h := NewUploadHandlers(pool, &stubSpool{}, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleUpload(rec, pdfRequest(t, "/upload"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No table found in the PDF.") {
		t.Fatalf("expected document message, got %s", rec.Body.String())
	}
}

func TestHandleUpload_MethodGate(t *testing.T) {
	h := NewUploadHandlers(&stubPool{result: uploadResult()}, &stubSpool{}, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/upload", nil)
	rec := httptest.NewRecorder()
	h.HandleUpload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleUpload_RemovesSpooledFile(t *testing.T) {
	parser := parsejob.ParserFunc(func(context.Context, string) (*timetable.BuildResult, error) {
		return uploadResult(), nil
	})
	pool := parsejob.NewPool(config.ParserConfig{Workers: 1, QueueSize: 4, JobTimeout: "5s"}, parser)
	pool.Start(t.Context())
	defer pool.Stop(context.Background())

	spool := &stubSpool{}
	h := NewUploadHandlers(pool, spool, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleUpload(rec, pdfRequest(t, "/upload"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(spool.removed) != 1 {
		t.Fatalf("expected spooled file removed after parse, got %v", spool.removed)
	}
}

func TestHandleExportCSV(t *testing.T) {
	h := NewUploadHandlers(&stubPool{result: uploadResult()}, &stubSpool{}, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleExportCSV(rec, pdfRequest(t, "/export/csv"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv content type, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("expected attachment disposition, got %q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "day,hour,subject,teacher,room,specialization\n") {
		t.Fatalf("expected CSV header, got %s", body)
	}
	if !strings.Contains(body, "Montag,1,Mathe,Kre,204,1") {
		t.Fatalf("expected lesson record, got %s", body)
	}
}

func TestHandleExportICS(t *testing.T) {
	h := NewUploadHandlers(&stubPool{result: uploadResult()}, &stubSpool{}, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleExportICS(rec, pdfRequest(t, "/export/ics"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("expected text/calendar content type, got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") {
		t.Fatalf("expected calendar output, got %s", body)
	}
	if !strings.Contains(body, "SUMMARY:Mathe") {
		t.Fatalf("expected lesson event, got %s", body)
	}
}
