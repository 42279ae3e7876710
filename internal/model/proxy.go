// Package model defines shared types for the proxy.
package model

import (
	"context"
	"net/http"
)

// ProxyRequest represents a client request to be forwarded upstream.
// Path is the escaped request path, prefix included; RawQuery is carried
// to the upstream verbatim.
type ProxyRequest struct {
	Ctx      context.Context
	Path     string
	RawQuery string
}

// ProxyResponse represents a fully buffered upstream response.
type ProxyResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// ContentType returns the upstream Content-Type, or fallback when absent.
func (r *ProxyResponse) ContentType(fallback string) string {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return fallback
}
