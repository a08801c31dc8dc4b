// Package server serves the studio: the page a share link opens, the JSON
// API the editor uses to build and check links, and a websocket that
// streams length estimates while a bench is being edited.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/polarcraft/polarstudio/internal/benchfile"
	"github.com/polarcraft/polarstudio/internal/codec"
	"github.com/polarcraft/polarstudio/internal/config"
	studioerrors "github.com/polarcraft/polarstudio/internal/errors"
	studiohttp "github.com/polarcraft/polarstudio/internal/http"
	"github.com/polarcraft/polarstudio/internal/logging"
	"github.com/polarcraft/polarstudio/internal/middleware"
	"github.com/polarcraft/polarstudio/internal/monitoring"
	"github.com/polarcraft/polarstudio/internal/registry"
	"github.com/polarcraft/polarstudio/internal/share"
)

// maxBodyBytes bounds a posted bench document.
const maxBodyBytes = 1 << 20

// Server is the studio HTTP server. Handlers are safe for concurrent use;
// every request works on its own bench state.
type Server struct {
	config     *config.Config
	registry   *registry.Registry
	decoder    *codec.Decoder
	builder    *share.Builder
	parser     *benchfile.Parser
	logger     logging.Logger
	errHandler *studioerrors.ErrorHandler
	allowed    []string
	metrics    *monitoring.ShareMetrics
	health     *monitoring.HealthMonitor
	router     *studiohttp.Router
}

// New wires a server for cfg. A nil logger discards output.
func New(cfg *config.Config, logger logging.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server: config cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	builder, err := cfg.ShareBuilder()
	if err != nil {
		return nil, err
	}

	reg := registry.Default()
	logger = logger.WithComponent("server")

	s := &Server{
		config:     cfg,
		registry:   reg,
		decoder:    codec.NewDecoder(reg, cfg.CodecOptions()...),
		builder:    builder,
		parser:     benchfile.NewParser(reg),
		logger:     logger,
		errHandler: studioerrors.NewErrorHandler(logger),
		allowed:    middleware.AllowedOrigins(cfg),
		metrics:    monitoring.NewShareMetrics(monitoring.NewMetricsCollector("polarstudio")),
		health:     monitoring.NewHealthMonitor(logger),
	}

	s.health.RegisterCheck(monitoring.CodecHealthChecker(reg, cfg.CodecOptions()...))
	s.health.RegisterCheck(monitoring.MemoryHealthChecker())
	s.health.RegisterCheck(monitoring.GoroutineHealthChecker())

	chain := middleware.NewMiddlewareChain(middleware.MiddlewareDependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: s.metrics,
	})
	s.router = studiohttp.NewRouter(cfg, s, chain)

	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router.Handler()
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.router.GetAddr()
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Studio server starting",
		"addr", s.router.GetAddr(),
		"share_origin", s.builder.Origin())
	return s.router.Start(ctx)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.router.Shutdown(ctx)
}
