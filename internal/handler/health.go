package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"devproxy-go/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// StatusResponse is the body of /proxy/status.
type StatusResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	ProxyEnabled bool   `json:"proxy_enabled"`
	UpstreamURL  string `json:"upstream_url,omitempty"`
	Prefix       string `json:"prefix,omitempty"`
	StaticRoot   string `json:"static_root"`
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns proxy status information.
func (h *HealthHandler) Status(c echo.Context) error {
	resp := StatusResponse{
		Status:       "ok",
		Version:      string(h.version),
		ProxyEnabled: h.cfg.ProxyEnabled(),
		StaticRoot:   h.cfg.Static.Root,
	}
	if resp.ProxyEnabled {
		resp.UpstreamURL = h.cfg.Upstream.BaseURL
		resp.Prefix = h.cfg.Upstream.Prefix
	}
	return c.JSON(http.StatusOK, resp)
}
