package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"
)

func (s *Server) startAPIServerWithListener(_ context.Context, ln net.Listener) error {
	mux := http.NewServeMux()

	// Upload and synchronous export endpoints
	mux.HandleFunc("/upload", s.uploadHandlers.HandleUpload)
	mux.HandleFunc("/export/csv", s.uploadHandlers.HandleExportCSV)
	mux.HandleFunc("/export/ics", s.uploadHandlers.HandleExportICS)

	// Health and status endpoints
	mux.HandleFunc("/healthz", s.monitoringHandlers.HandleHealthCheck)
	mux.HandleFunc("/status", s.statusHandlers.HandleStatus)

	// The write timeout must outlive the synchronous wait for a queue slot
	// plus the per-job parse deadline.
	s.apiServer = &http.Server{Handler: s.mchain(mux), ReadTimeout: 30 * time.Second, WriteTimeout: 120 * time.Second, IdleTimeout: 120 * time.Second}
	return s.startServerWithListener("api", s.apiServer, ln)
}
