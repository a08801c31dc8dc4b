// Package middleware builds the HTTP middleware stack of the studio
// server. Middlewares are applied in the order they were added: the
// first one added is the outermost wrapper.
package middleware

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/polarcraft/polarstudio/internal/config"
	"github.com/polarcraft/polarstudio/internal/logging"
	"github.com/polarcraft/polarstudio/internal/monitoring"
	"github.com/polarcraft/polarstudio/internal/validation"
)

// MiddlewareChain manages the HTTP middleware stack.
type MiddlewareChain struct {
	config      *config.Config
	logger      logging.Logger
	metrics     *monitoring.ShareMetrics
	middlewares []Middleware
}

// Middleware represents a single middleware function
type Middleware func(http.Handler) http.Handler

// MiddlewareDependencies contains all dependencies needed for middleware construction
type MiddlewareDependencies struct {
	Config *config.Config
	Logger logging.Logger
	// Metrics, when set, counts served requests.
	Metrics *monitoring.ShareMetrics
}

// NewMiddlewareChain creates the default stack: request logging, panic
// recovery, CORS and security headers.
//
// Panics if Config is nil.
func NewMiddlewareChain(deps MiddlewareDependencies) *MiddlewareChain {
	if deps.Config == nil {
		panic("MiddlewareChain: config cannot be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	chain := &MiddlewareChain{
		config:      deps.Config,
		logger:      logger.WithComponent("http"),
		metrics:     deps.Metrics,
		middlewares: make([]Middleware, 0, 4),
	}
	chain.buildDefaultStack()

	return chain
}

func (mc *MiddlewareChain) buildDefaultStack() {
	mc.AddMiddleware(mc.createLoggingMiddleware())
	mc.AddMiddleware(mc.createRecoveryMiddleware())
	mc.AddMiddleware(mc.createCORSMiddleware())
	mc.AddMiddleware(SecurityHeaders)
}

// AddMiddleware adds a middleware to the chain
func (mc *MiddlewareChain) AddMiddleware(middleware Middleware) {
	mc.middlewares = append(mc.middlewares, middleware)
}

// Len returns the number of middlewares in the chain.
func (mc *MiddlewareChain) Len() int {
	return len(mc.middlewares)
}

// Apply wraps handler with every middleware in the chain.
func (mc *MiddlewareChain) Apply(handler http.Handler) http.Handler {
	if handler == nil {
		panic("MiddlewareChain.Apply: handler cannot be nil")
	}

	wrapped := handler
	for i := len(mc.middlewares) - 1; i >= 0; i-- {
		wrapped = mc.middlewares[i](wrapped)
		if wrapped == nil {
			panic(fmt.Sprintf("MiddlewareChain.Apply: middleware at index %d returned nil handler", i))
		}
	}

	return wrapped
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// the websocket upgrade needs for hijacking.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack hands the connection to a websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func (mc *MiddlewareChain) createLoggingMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			if mc.metrics != nil {
				mc.metrics.ServerRequest(r.Method, rec.status)
			}
			mc.logger.Info(r.Context(), "Request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_us", time.Since(start).Microseconds())
		})
	}
}

func (mc *MiddlewareChain) createRecoveryMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					mc.logger.Error(r.Context(), fmt.Errorf("panic: %v", rec), "Handler panicked",
						"path", r.URL.Path)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func (mc *MiddlewareChain) createCORSMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && mc.originAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (mc *MiddlewareChain) originAllowed(origin string) bool {
	return validation.ValidateOrigin(origin, AllowedOrigins(mc.config)) == nil
}

// AllowedOrigins lists the origins the server trusts: the configured
// list, the share origin and the server's own address.
func AllowedOrigins(cfg *config.Config) []string {
	allowed := make([]string, 0, len(cfg.Server.AllowedOrigins)+2)
	allowed = append(allowed, cfg.Server.AllowedOrigins...)
	allowed = append(allowed, cfg.Share.Origin)
	allowed = append(allowed, fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	return allowed
}

// SecurityHeaders sets conservative response headers. Pages carry inline
// styles only, never scripts from other origins.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy",
			"default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self'; connect-src 'self' ws: wss:; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}
