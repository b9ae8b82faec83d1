package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"cutline/internal/config"
	"cutline/internal/devices"
	"cutline/internal/export"
	"cutline/internal/history"
	"cutline/internal/logging"
	"cutline/internal/mediaimport"
	"cutline/internal/prerender"
)

// ServerConfig wires the engine components into the HTTP surface. Nil
// components answer 503 on their routes.
type ServerConfig struct {
	Config    *config.Config
	Exporter  *export.Exporter
	Renderer  *prerender.Renderer
	Importer  *mediaimport.Importer
	Devices   devices.Enumerator
	Store     *history.Store
	Logger    *slog.Logger
	StartTime time.Time
}

// Server serves the API on the configured bind address.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer constructs a Server.
func NewServer(cfg ServerConfig) *Server {
	cfg.Logger = logging.NewComponentLogger(cfg.Logger, "api")
	if cfg.StartTime.IsZero() {
		cfg.StartTime = time.Now()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Config.API.Bind,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting HTTP server",
		logging.String("addr", l.Addr().String()),
		logging.String(logging.FieldEventType, "api_started"),
	)
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address and serves.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured bind address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
