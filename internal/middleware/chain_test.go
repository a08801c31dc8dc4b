package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarcraft/polarstudio/internal/config"
	"github.com/polarcraft/polarstudio/internal/monitoring"
)

func newChain(t *testing.T) *MiddlewareChain {
	t.Helper()
	cfg := config.Default()
	cfg.Server.AllowedOrigins = []string{"https://polarcraft.example"}
	return NewMiddlewareChain(MiddlewareDependencies{Config: cfg})
}

func TestNewMiddlewareChainRequiresConfig(t *testing.T) {
	assert.Panics(t, func() { NewMiddlewareChain(MiddlewareDependencies{}) })
	assert.Equal(t, 4, newChain(t).Len())
}

func TestApplyOrder(t *testing.T) {
	chain := &MiddlewareChain{}
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	chain.AddMiddleware(mark("outer"))
	chain.AddMiddleware(mark("inner"))

	h := chain.Apply(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestCORS(t *testing.T) {
	h := newChain(t).Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://polarcraft.example", true},
		{"http://localhost:5173", true},
		{"http://localhost:8080", true},
		{"https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/kinds", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestPreflight(t *testing.T) {
	called := false
	h := newChain(t).Apply(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/api/share", nil)
	req.Header.Set("Origin", "https://polarcraft.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
}

func TestSecurityHeadersAndRecovery(t *testing.T) {
	h := newChain(t).Apply(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/studio", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
}

func TestRequestMetrics(t *testing.T) {
	metrics := monitoring.NewShareMetrics(monitoring.NewMetricsCollector(""))
	chain := NewMiddlewareChain(MiddlewareDependencies{Config: config.Default(), Metrics: metrics})
	h := chain.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/studio", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/studio", nil))

	mc := metrics.Collector()
	assert.Equal(t, 2.0, mc.Value("http_requests_total", map[string]string{"method": "GET", "status": "2xx"}))
	assert.Equal(t, 1.0, mc.Value("http_requests_total", map[string]string{"method": "GET", "status": "4xx"}))
}
