package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/planwerk/stundenplan/internal/config"
	derrors "github.com/planwerk/stundenplan/internal/foundation/errors"
	handlers "github.com/planwerk/stundenplan/internal/server/handlers"
	smw "github.com/planwerk/stundenplan/internal/server/middleware"
)

// Server manages the API and admin HTTP endpoints.
type Server struct {
	apiServer    *http.Server
	adminServer  *http.Server
	cfg          *config.Config
	opts         Options
	errorAdapter *derrors.HTTPErrorAdapter
	startTime    time.Time
	apiAddr      string
	adminAddr    string

	// Handler modules
	uploadHandlers     *handlers.UploadHandlers
	statusHandlers     *handlers.StatusHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	// middleware chain
	mchain func(http.Handler) http.Handler
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, pool Runtime, store handlers.Spooler, opts Options) *Server {
	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: derrors.NewHTTPErrorAdapter(slog.Default()),
		startTime:    time.Now(),
	}

	// Initialize handler modules
	s.uploadHandlers = handlers.NewUploadHandlers(pool, store, cfg.Server.MaxUploadBytes)
	s.uploadHandlers.SetRecorder(opts.Recorder)
	s.uploadHandlers.SetCollector(opts.Collector)
	s.statusHandlers = handlers.NewStatusHandlers(pool, cfg, s.startTime)
	s.statusHandlers.SetCollector(opts.Collector)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(s.startTime)

	// Initialize middleware chain
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter, cfg.Server.CORSOrigins, opts.Collector)

	return s
}

// Addr returns the bound API listener address after Start.
func (s *Server) Addr() string {
	return s.apiAddr
}

// AdminAddr returns the bound admin listener address after Start.
func (s *Server) AdminAddr() string {
	return s.adminAddr
}

// Start initializes and starts both HTTP servers.
func (s *Server) Start(ctx context.Context) error {
	// Pre-bind both listeners so we can fail fast and surface aggregate errors
	// instead of logging independent 'address already in use' lines after
	// partial initialization.
	type preBind struct {
		name string
		addr string
		ln   net.Listener
	}
	binds := []preBind{
		{name: "api", addr: s.cfg.Server.Listen},
		{name: "admin", addr: s.cfg.Server.AdminListen},
	}
	var bindErrs []error
	lc := net.ListenConfig{}
	for i := range binds {
		ln, err := lc.Listen(ctx, "tcp", binds[i].addr)
		if err != nil {
			bindErrs = append(bindErrs, fmt.Errorf("%s listener %s: %w", binds[i].name, binds[i].addr, err))
			continue
		}
		binds[i].ln = ln
	}
	if len(bindErrs) > 0 {
		// Close any successful listeners before returning
		for _, b := range binds {
			if b.ln != nil {
				_ = b.ln.Close()
			}
		}
		return fmt.Errorf("http startup failed: %w", errors.Join(bindErrs...))
	}

	s.apiAddr = binds[0].ln.Addr().String()
	s.adminAddr = binds[1].ln.Addr().String()

	if err := s.startAPIServerWithListener(ctx, binds[0].ln); err != nil {
		return fmt.Errorf("failed to start api server: %w", err)
	}
	if err := s.startAdminServerWithListener(ctx, binds[1].ln); err != nil {
		return fmt.Errorf("failed to start admin server: %w", err)
	}

	slog.Info("HTTP servers started",
		slog.String("listen", s.apiAddr),
		slog.String("admin_listen", s.adminAddr))
	return nil
}

// Stop gracefully shuts down both HTTP servers.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error

	// Stop servers in reverse order
	if s.adminServer != nil {
		if err := s.adminServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}

	if s.apiServer != nil {
		if err := s.apiServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("api server shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	slog.Info("HTTP servers stopped")
	return nil
}

// startServerWithListener launches an http.Server on a pre-bound listener or binds itself.
// It standardizes goroutine startup and error logging across server types.
func (s *Server) startServerWithListener(kind string, srv *http.Server, ln net.Listener) error {
	go func() {
		var err error
		if ln != nil {
			err = srv.Serve(ln)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s server error", kind), "error", err)
		}
	}()
	return nil
}
