package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
)

func assertCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORS_Preflight(t *testing.T) {
	e := echo.New()
	e.Use(CORS())
	called := false
	e.Any("/*", func(c echo.Context) error {
		called = true
		return c.String(http.StatusTeapot, "should not run")
	})

	for _, path := range []string{"/anything", "/api/markets", "/", "/no/route/here"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, rec.Body.Bytes())
			assertCORS(t, rec)
		})
	}
	assert.False(t, called, "preflight must not reach the handler")
}

func TestCORS_PreflightOnRouteWithoutOptions(t *testing.T) {
	e := echo.New()
	e.Use(CORS())
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodOptions, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	assertCORS(t, rec)
}

func TestCORS_EveryExitPath(t *testing.T) {
	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(CORS())
	e.GET("/ok", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/http-error", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadGateway, "upstream down")
	})
	e.GET("/plain-error", func(c echo.Context) error {
		return errors.New("boom")
	})
	e.GET("/panic", func(c echo.Context) error {
		panic("kaboom")
	})
	e.GET("/overwrite", func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "https://elsewhere.example")
		c.Response().Header().Del("Access-Control-Allow-Methods")
		return c.String(http.StatusOK, "ok")
	})

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/ok", http.StatusOK},
		{"/http-error", http.StatusBadGateway},
		{"/plain-error", http.StatusInternalServerError},
		{"/panic", http.StatusInternalServerError},
		{"/overwrite", http.StatusOK},
		{"/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assertCORS(t, rec)
		})
	}
}

func TestCORS_MethodNotAllowed(t *testing.T) {
	e := echo.New()
	e.Use(CORS())
	e.GET("/only-get", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodDelete, "/only-get", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assertCORS(t, rec)
}
