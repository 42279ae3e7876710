package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"devproxy-go/internal/config"
)

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(&config.Config{Log: config.LogConfig{Level: tt.level, Format: "text"}})
			assert.True(t, logger.Enabled(context.Background(), tt.want))
			assert.False(t, logger.Enabled(context.Background(), tt.want-1))
		})
	}
}

func TestBannerInfo(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Host: "0.0.0.0", Port: 8002},
		Upstream: config.UpstreamConfig{BaseURL: config.DefaultBaseURL, Prefix: config.DefaultPrefix},
		Static:   config.StaticConfig{Root: "."},
	}

	b := bannerInfo(cfg, "1.0.0")
	assert.Equal(t, "1.0.0", b.Version)
	assert.Equal(t, "http://localhost:8002", b.URL())
	assert.Equal(t, "/api", b.ProxyPrefix)
	assert.Equal(t, config.DefaultBaseURL, b.UpstreamURL)
	assert.True(t, filepath.IsAbs(b.StaticRoot))

	cfg.Upstream.Disabled = true
	b = bannerInfo(cfg, "1.0.0")
	assert.Empty(t, b.ProxyPrefix)
	assert.Empty(t, b.UpstreamURL)
}
