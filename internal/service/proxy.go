// Package service implements the core proxy forwarding logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"devproxy-go/internal/config"
	"devproxy-go/internal/model"
)

// ErrOutsidePrefix is returned when a path does not start with the proxied prefix.
var ErrOutsidePrefix = errors.New("path is outside the proxied prefix")

// forwardableResponseHeaders are the only upstream headers relayed to the
// client besides Content-Type, which the handler sets itself.
var forwardableResponseHeaders = map[string]bool{
	"Cache-Control": true,
	"Etag":          true,
	"Expires":       true,
	"Last-Modified": true,
}

// StatusError reports an upstream response with an error status (>= 400).
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.StatusCode, e.Reason)
}

// ConnectionError reports a failure to obtain any upstream response:
// DNS resolution, refused connections, resets and timeouts.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Upstream is the transport used to reach the upstream API.
type Upstream interface {
	Get(ctx context.Context, url string) (*model.ProxyResponse, error)
}

// ProxyService maps prefixed local paths onto the upstream base URL.
type ProxyService struct {
	client  Upstream
	logger  *slog.Logger
	baseURL string
	prefix  string
}

// NewProxyService creates a ProxyService.
func NewProxyService(c Upstream, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	base := strings.TrimRight(cfg.Upstream.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream base_url %q must be absolute", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Prefix == "" {
		return nil, errors.New("upstream prefix is empty")
	}

	return &ProxyService{
		client:  c,
		logger:  logger.With("component", "proxy_service"),
		baseURL: base,
		prefix:  cfg.Upstream.Prefix,
	}, nil
}

// Prefix returns the local path prefix that is forwarded upstream.
func (s *ProxyService) Prefix() string {
	return s.prefix
}

// Matches reports whether path is under the proxied prefix. The prefix
// itself, without a trailing slash, does not match.
func (s *ProxyService) Matches(path string) bool {
	return strings.HasPrefix(path, s.prefix+"/")
}

// BuildUpstreamURL strips exactly the prefix from path and appends the
// remainder, plus the raw query if any, to the upstream base URL.
func (s *ProxyService) BuildUpstreamURL(path, rawQuery string) (string, error) {
	if !s.Matches(path) {
		return "", fmt.Errorf("%w: %q", ErrOutsidePrefix, path)
	}

	target := s.baseURL + path[len(s.prefix):]
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target, nil
}

// Forward sends a single GET for pr to the upstream API and returns the
// buffered response. Upstream error statuses come back as *StatusError and
// transport failures as *ConnectionError; anything else is unexpected.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	target, err := s.BuildUpstreamURL(pr.Path, pr.RawQuery)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("forwarding request",
		"path", pr.Path,
		"url", target,
	)

	resp, err := s.client.Get(pr.Ctx, target)
	if err != nil {
		return nil, classify(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Reason:     reasonPhrase(resp.StatusCode, resp.Status),
		}
	}

	resp.Header = filterResponseHeaders(resp.Header)
	return resp, nil
}

// classify wraps transport failures in ConnectionError. URL parse failures
// are *url.Error too but never reached the network.
func classify(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Op != "parse" {
		return &ConnectionError{Err: urlErr.Err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ConnectionError{Err: err}
	}
	return fmt.Errorf("forward to upstream: %w", err)
}

// reasonPhrase extracts the reason from a status line such as "404 Not Found".
func reasonPhrase(code int, status string) string {
	reason := strings.TrimSpace(strings.TrimPrefix(status, strconv.Itoa(code)))
	if reason == "" {
		reason = http.StatusText(code)
	}
	return reason
}

func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for key, vals := range src {
		ck := http.CanonicalHeaderKey(key)
		if ck == "Content-Type" || forwardableResponseHeaders[ck] {
			dst[ck] = vals
		}
	}
	return dst
}
