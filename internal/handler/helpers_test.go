package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"

	"devproxy-go/internal/client"
	"devproxy-go/internal/config"
	"devproxy-go/internal/metrics"
	"devproxy-go/internal/middleware"
	"devproxy-go/internal/service"
)

// upstreamStub is an httptest server that counts the requests it receives
// and remembers the last one.
type upstreamStub struct {
	*httptest.Server
	hits atomic.Int32
	last atomic.Pointer[http.Request]
}

func newUpstreamStub(t *testing.T, h http.HandlerFunc) *upstreamStub {
	t.Helper()
	s := &upstreamStub{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.last.Store(r.Clone(r.Context()))
		h(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL, root string) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:         baseURL,
			Prefix:          config.DefaultPrefix,
			TimeoutSeconds:  5,
			IdleConnections: 10,
		},
		Static: config.StaticConfig{
			Root:  root,
			Index: "index.html",
		},
		Metrics: config.MetricsConfig{Path: "/metrics"},
	}
}

// newTestEcho assembles the same handler graph and middleware order the
// binary uses, minus logging and rate limiting.
func newTestEcho(t *testing.T, cfg *config.Config) (*echo.Echo, *metrics.Metrics) {
	t.Helper()
	logger := testLogger()
	m := metrics.New(cfg.Upstream.Prefix, "/healthz", "/proxy/status", cfg.Metrics.Path)

	uc := client.NewUpstreamClient(cfg, logger, m)
	svc, err := service.NewProxyService(uc, cfg, logger)
	require.NoError(t, err)

	d := NewDispatcher(cfg, NewProxyHandler(svc, logger), NewStaticHandler(cfg))

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(middleware.MetricsMiddleware(m))
	e.Use(middleware.CORS())
	e.Use(middleware.SecurityHeaders())
	RegisterRoutes(e, cfg, m, d, NewHealthHandler(cfg, "test"))
	return e, m
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// writeFiles creates files under dir from a name -> content map.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func requireCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, middleware.AllowOrigin, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	require.Equal(t, middleware.AllowMethods, rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	require.Equal(t, middleware.AllowHeaders, rec.Header().Get(echo.HeaderAccessControlAllowHeaders))
}
