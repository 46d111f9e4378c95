package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"
)

func (s *Server) startAdminServerWithListener(_ context.Context, ln net.Listener) error {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/healthz", s.monitoringHandlers.HandleHealthCheck)

	// Prometheus metrics endpoint
	if s.cfg.Metrics != nil && s.cfg.Metrics.Enabled && s.opts.PrometheusHandler != nil {
		mux.Handle(s.cfg.Metrics.Path, s.opts.PrometheusHandler)
	}

	s.adminServer = &http.Server{Handler: s.mchain(mux), ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
	return s.startServerWithListener("admin", s.adminServer, ln)
}
