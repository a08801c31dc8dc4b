package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarcraft/polarstudio/internal/config"
)

type recordingHandlers struct {
	hits []string
}

func (h *recordingHandlers) hit(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.hits = append(h.hits, name)
		w.WriteHeader(http.StatusTeapot)
	}
}

func (h *recordingHandlers) HandleStudio(w http.ResponseWriter, r *http.Request) {
	h.hit("studio")(w, r)
}

func (h *recordingHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.hit("health")(w, r)
}

func (h *recordingHandlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.hit("metrics")(w, r)
}

func (h *recordingHandlers) HandleKinds(w http.ResponseWriter, r *http.Request) {
	h.hit("kinds")(w, r)
}

func (h *recordingHandlers) HandleDecode(w http.ResponseWriter, r *http.Request) {
	h.hit("decode")(w, r)
}

func (h *recordingHandlers) HandleShare(w http.ResponseWriter, r *http.Request) {
	h.hit("share")(w, r)
}

func (h *recordingHandlers) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	h.hit("estimate")(w, r)
}

func (h *recordingHandlers) HandleEstimateSocket(w http.ResponseWriter, r *http.Request) {
	h.hit("ws")(w, r)
}

type passthrough struct{ applied bool }

func (p *passthrough) Apply(h http.Handler) http.Handler {
	p.applied = true
	return h
}

func TestNewRouterPanics(t *testing.T) {
	cfg := config.Default()
	h := &recordingHandlers{}
	mw := &passthrough{}

	assert.Panics(t, func() { NewRouter(nil, h, mw) })
	assert.Panics(t, func() { NewRouter(cfg, nil, mw) })
	assert.Panics(t, func() { NewRouter(cfg, h, nil) })

	bad := config.Default()
	bad.Server.Port = 0
	assert.Panics(t, func() { NewRouter(bad, h, mw) })
}

func TestRoutes(t *testing.T) {
	h := &recordingHandlers{}
	mw := &passthrough{}
	router := NewRouter(config.Default(), h, mw)
	require.True(t, mw.applied)

	tests := []struct {
		path string
		want string
	}{
		{"/studio?module=design&setup=1", "studio"},
		{"/health", "health"},
		{"/metrics", "metrics"},
		{"/api/kinds", "kinds"},
		{"/api/decode", "decode"},
		{"/api/share", "share"},
		{"/api/estimate", "estimate"},
		{"/ws/estimate", "ws"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			h.hits = nil
			rec := httptest.NewRecorder()
			router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusTeapot, rec.Code)
			assert.Equal(t, []string{tt.want}, h.hits)
		})
	}
}

func TestRootRedirectsToStudio(t *testing.T) {
	router := NewRouter(config.Default(), &recordingHandlers{}, &passthrough{})

	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/studio", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShutdownIdempotent(t *testing.T) {
	router := NewRouter(config.Default(), &recordingHandlers{}, &passthrough{})

	assert.Equal(t, "localhost:8080", router.GetAddr())
	require.NoError(t, router.Shutdown(context.Background()))
	require.NoError(t, router.Shutdown(context.Background()))
	assert.True(t, router.IsShutdown())
	assert.Error(t, router.Start(context.Background()))
}
