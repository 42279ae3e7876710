// Package handler implements the HTTP endpoints of the proxy.
package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"devproxy-go/internal/config"
	"devproxy-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. Every
// path not claimed by a reserved route goes to the dispatcher.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, d *Dispatcher, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	if cfg.Metrics.Enabled && m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	e.Any("/*", d.Handle)
}
