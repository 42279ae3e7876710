// Package client provides the upstream HTTP client for the proxied API.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"devproxy-go/internal/config"
	"devproxy-go/internal/metrics"
	"devproxy-go/internal/model"
)

const userAgent = "devproxy-go/1.0"

// UpstreamClient sends requests to the upstream API.
type UpstreamClient struct {
	rc      *resty.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewUpstreamClient creates an UpstreamClient with connection pooling and a
// bounded timeout. The metrics parameter is optional; pass nil to disable
// upstream metrics recording.
func NewUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	rc := resty.New().
		SetTransport(transport).
		SetTimeout(time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0)
	// Requests are independent; never carry cookies from one to the next.
	rc.SetCookieJar(nil)

	return &UpstreamClient{
		rc:      rc,
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}
}

// Get issues a single GET against url and buffers the whole response.
// A non-nil error means no HTTP response was received; upstream error
// statuses are returned as a normal response.
func (c *UpstreamClient) Get(ctx context.Context, url string) (*model.ProxyResponse, error) {
	c.logger.Debug("upstream request",
		"method", http.MethodGet,
		"url", url,
	)

	start := time.Now()
	resp, err := c.rc.R().SetContext(ctx).Get(url)
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(http.MethodGet)
	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(method).Observe(duration)
	}

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamErrors.WithLabelValues(method).Inc()
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(method, strconv.Itoa(resp.StatusCode())).Inc()
	}

	return &model.ProxyResponse{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}
