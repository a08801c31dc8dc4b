// Package http owns the studio server's route table and lifecycle.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/polarcraft/polarstudio/internal/config"
)

// ShutdownTimeout bounds connection draining after the start context ends.
const ShutdownTimeout = 30 * time.Second

// Router handles HTTP server lifecycle and route registration.
//
// Invariants:
//   - config, mux and handlers are non-nil after construction
//   - httpServer is nil only before construction completes
//   - isShutdown is guarded by serverMutex
type Router struct {
	config     *config.Config
	httpServer *http.Server
	mux        *http.ServeMux

	serverMutex sync.RWMutex
	isShutdown  bool

	handlers Handlers
}

// Handlers lists every HTTP handler the router mounts.
type Handlers interface {
	// Studio page; /studio?module=design&setup=<token> opens a shared bench.
	HandleStudio(w http.ResponseWriter, r *http.Request)

	// JSON API
	HandleHealth(w http.ResponseWriter, r *http.Request)
	HandleMetrics(w http.ResponseWriter, r *http.Request)
	HandleKinds(w http.ResponseWriter, r *http.Request)
	HandleDecode(w http.ResponseWriter, r *http.Request)
	HandleShare(w http.ResponseWriter, r *http.Request)
	HandleEstimate(w http.ResponseWriter, r *http.Request)

	// Live estimate stream for editors.
	HandleEstimateSocket(w http.ResponseWriter, r *http.Request)
}

// MiddlewareProvider interface for middleware chain injection
type MiddlewareProvider interface {
	Apply(handler http.Handler) http.Handler
}

// NewRouter creates a router with every route registered and the
// middleware chain applied.
//
// Panics if a dependency is nil or the server address is invalid.
func NewRouter(
	config *config.Config,
	handlers Handlers,
	middlewareProvider MiddlewareProvider,
) *Router {
	if config == nil {
		panic("Router: config cannot be nil")
	}
	if handlers == nil {
		panic("Router: handlers cannot be nil")
	}
	if middlewareProvider == nil {
		panic("Router: middlewareProvider cannot be nil")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		panic(fmt.Sprintf("Router: invalid port %d, must be 1-65535", config.Server.Port))
	}
	if config.Server.Host == "" {
		panic("Router: host cannot be empty")
	}

	router := &Router{
		config:   config,
		mux:      http.NewServeMux(),
		handlers: handlers,
	}

	router.registerRoutes()

	handler := middlewareProvider.Apply(router.mux)
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	router.serverMutex.Lock()
	router.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	router.serverMutex.Unlock()

	return router
}

func (r *Router) registerRoutes() {
	r.mux.HandleFunc("/studio", r.handlers.HandleStudio)
	r.mux.HandleFunc("/{$}", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/studio", http.StatusFound)
	})

	r.mux.HandleFunc("/health", r.handlers.HandleHealth)
	r.mux.HandleFunc("/metrics", r.handlers.HandleMetrics)

	r.mux.HandleFunc("/api/kinds", r.handlers.HandleKinds)
	r.mux.HandleFunc("/api/decode", r.handlers.HandleDecode)
	r.mux.HandleFunc("/api/share", r.handlers.HandleShare)
	r.mux.HandleFunc("/api/estimate", r.handlers.HandleEstimate)

	r.mux.HandleFunc("/ws/estimate", r.handlers.HandleEstimateSocket)
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (r *Router) Handler() http.Handler {
	r.serverMutex.RLock()
	defer r.serverMutex.RUnlock()
	return r.httpServer.Handler
}

// Start serves until ctx is cancelled or the server fails. Cancellation
// triggers a graceful shutdown and returns its result.
func (r *Router) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("Router.Start: context cannot be nil")
	}

	r.serverMutex.RLock()
	server := r.httpServer
	isShutdown := r.isShutdown
	r.serverMutex.RUnlock()

	if server == nil {
		return fmt.Errorf("Router.Start: server not initialized (call NewRouter first)")
	}
	if isShutdown {
		return fmt.Errorf("Router.Start: router has been shut down")
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("Router: server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return r.Shutdown(shutdownCtx)

	case err := <-errChan:
		return err
	}
}

// Shutdown drains connections within ctx. It is idempotent.
func (r *Router) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("Router.Shutdown: context cannot be nil")
	}

	r.serverMutex.Lock()
	defer r.serverMutex.Unlock()

	if r.isShutdown {
		return nil
	}
	r.isShutdown = true

	if r.httpServer != nil {
		if err := r.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("Router.Shutdown: server shutdown failed: %w", err)
		}
	}

	return nil
}

// GetAddr returns the server address
func (r *Router) GetAddr() string {
	r.serverMutex.RLock()
	defer r.serverMutex.RUnlock()

	if r.httpServer != nil {
		return r.httpServer.Addr
	}

	return fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
}

// IsShutdown returns whether the router has been shut down
func (r *Router) IsShutdown() bool {
	r.serverMutex.RLock()
	defer r.serverMutex.RUnlock()
	return r.isShutdown
}

// RegisterCustomRoute mounts an extra route, such as a debug endpoint.
func (r *Router) RegisterCustomRoute(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}
