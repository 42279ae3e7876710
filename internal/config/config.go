// Package config handles TOML configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"reflect"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/devproxy/config.toml",
	"configs/config.toml",
}

// reservedRoutes are served by the proxy itself and cannot be shadowed by
// the upstream prefix or the metrics path.
var reservedRoutes = []string{"/healthz", "/proxy/status"}

// Built-in defaults used when neither the config file nor the CLI sets a value.
const (
	DefaultPort    = 8002
	DefaultBaseURL = "https://api.elections.kalshi.com/v1"
	DefaultPrefix  = "/api"
)

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config   string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host     string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port     int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	Upstream string `kong:"short='u',help='Upstream API base URL (overrides config).',env='UPSTREAM_BASE_URL'"`
	Prefix   string `kong:"help='Path prefix forwarded upstream (overrides config).',env='PROXY_PREFIX'"`
	Root     string `kong:"short='r',help='Directory to serve static files from (overrides config).',env='STATIC_ROOT'"`
	NoProxy  bool   `kong:"name='no-proxy',help='Serve static files only, without the upstream proxy.',env='NO_PROXY_MODE'"`
	LogLevel string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	Quiet    bool   `kong:"short='q',help='Do not print the startup banner.'"`

	Version kong.VersionFlag `kong:"help='Print version and exit.'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Static   StaticConfig   `toml:"static"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port" validate:"gte=0,lte=65535"` // 0 means "use default" (8002)
	BodyMaxBytes int64           `toml:"body_max_bytes" validate:"gte=0"`
	Quiet        bool            `toml:"quiet"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// UpstreamConfig holds upstream connection settings.
type UpstreamConfig struct {
	Disabled        bool   `toml:"disabled"`
	BaseURL         string `toml:"base_url"`
	Prefix          string `toml:"prefix"`
	TimeoutSeconds  int    `toml:"timeout_seconds" validate:"gte=0"`
	IdleConnections int    `toml:"idle_connections" validate:"gte=0"`
}

// StaticConfig controls the static file responder.
type StaticConfig struct {
	Root   string `toml:"root"`
	Index  string `toml:"index"`
	Browse *bool  `toml:"browse"` // nil means "use default" (true)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `toml:"format" validate:"omitempty,oneof=json text"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their TOML keys so errors read like the config file.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Load reads the TOML config file, if any, and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/devproxy/config.toml then configs/config.toml. Finding neither is not
// an error: the proxy runs on defaults.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)
	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.Upstream != "" {
		c.Upstream.BaseURL = cli.Upstream
	}
	if cli.Prefix != "" {
		c.Upstream.Prefix = cli.Prefix
	}
	if cli.Root != "" {
		c.Static.Root = cli.Root
	}
	if cli.NoProxy {
		c.Upstream.Disabled = true
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.Quiet {
		c.Server.Quiet = true
	}
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.Upstream.BaseURL = strings.TrimRight(c.Upstream.BaseURL, "/")
}

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationError(verrs[0])
		}
		return err
	}

	if c.Upstream.BaseURL != "" {
		u, err := url.Parse(c.Upstream.BaseURL)
		if err != nil {
			return fmt.Errorf("upstream.base_url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("upstream.base_url must use http or https; got %q", c.Upstream.BaseURL)
		}
		if u.Host == "" {
			return fmt.Errorf("upstream.base_url has no host; got %q", c.Upstream.BaseURL)
		}
		if u.RawQuery != "" || u.Fragment != "" {
			return fmt.Errorf("upstream.base_url must not carry a query or fragment; got %q", c.Upstream.BaseURL)
		}
	}

	if p := c.Upstream.Prefix; p != "" {
		if p[0] != '/' {
			return fmt.Errorf("upstream.prefix must start with '/'; got %q", p)
		}
		if p == "/" || strings.HasSuffix(p, "/") {
			return fmt.Errorf("upstream.prefix must not end with '/'; got %q", p)
		}
		if r := conflictingRoute(p); r != "" {
			return fmt.Errorf("upstream.prefix %q conflicts with reserved route %q", p, r)
		}
	}

	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		if r := conflictingRoute(p); r != "" {
			return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, r)
		}
		prefix := c.Upstream.Prefix
		if prefix == "" {
			prefix = DefaultPrefix
		}
		if !c.Upstream.Disabled && (p == prefix || strings.HasPrefix(p, prefix+"/")) {
			return fmt.Errorf("metrics.path %q conflicts with proxied prefix %q", p, prefix)
		}
	}

	return nil
}

func conflictingRoute(p string) string {
	for _, reserved := range reservedRoutes {
		if p == reserved || strings.HasPrefix(p, reserved+"/") || strings.HasPrefix(reserved, p+"/") {
			return reserved
		}
	}
	return ""
}

func formatValidationError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Errorf("%s must be one of: %s; got %q", field, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "gte":
		return fmt.Errorf("%s must be >= %s; got %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Errorf("%s must be <= %s; got %v", field, fe.Param(), fe.Value())
	}
	return fmt.Errorf("%s: %s", field, fe.Error())
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields, zero means "unset" because TOML cannot distinguish
// between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = DefaultBaseURL
	}
	if c.Upstream.Prefix == "" {
		c.Upstream.Prefix = DefaultPrefix
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 30
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Static.Root == "" {
		c.Static.Root = "."
	}
	if c.Static.Index == "" {
		c.Static.Index = "index.html"
	}
	if c.Static.Browse == nil {
		browse := true
		c.Static.Browse = &browse
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ProxyEnabled reports whether requests under the prefix are forwarded upstream.
func (c *Config) ProxyEnabled() bool {
	return !c.Upstream.Disabled
}

// BrowseEnabled reports whether directories without an index are listed.
func (c *StaticConfig) BrowseEnabled() bool {
	return c.Browse == nil || *c.Browse
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
