package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"devproxy-go/internal/model"
	"devproxy-go/internal/service"
)

// ProxyHandler relays GET requests under the proxied prefix to the upstream API.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle forwards the request upstream and writes the buffered response
// back with its status, content type and body unchanged.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Path:     req.URL.EscapedPath(),
		RawQuery: req.URL.RawQuery,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return h.mapError(c, err)
	}

	header := c.Response().Header()
	for key, vals := range resp.Header {
		for _, v := range vals {
			header.Add(key, v)
		}
	}
	contentType := resp.ContentType(echo.MIMEApplicationJSON)

	h.logger.Info("relayed upstream response",
		"path", pr.Path,
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
	)

	if len(resp.Body) == 0 {
		header.Set(echo.HeaderContentType, contentType)
		return c.NoContent(resp.StatusCode)
	}
	return c.Blob(resp.StatusCode, contentType, resp.Body)
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	status, msg := errorResponse(err)

	h.logger.Error("proxy error",
		"err", err,
		"path", c.Request().URL.Path,
		"status", status,
	)

	return c.JSON(status, map[string]string{"error": msg})
}

// errorResponse maps a forwarding failure onto the local status and message.
func errorResponse(err error) (int, string) {
	var statusErr *service.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, "Upstream API error: " + statusErr.Reason
	}

	var connErr *service.ConnectionError
	if errors.As(err, &connErr) {
		return http.StatusInternalServerError, "Connection error: " + connErr.Error()
	}

	return http.StatusInternalServerError, "Server error: " + err.Error()
}
