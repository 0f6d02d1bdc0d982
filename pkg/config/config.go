// Package config loads wikirevs settings from .wikirevs.yaml, WIKIREVS_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/wikirevs/pkg/aggregate"
	"github.com/Sumatoshi-tech/wikirevs/pkg/charts"
	"github.com/Sumatoshi-tech/wikirevs/pkg/mediawiki"
	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/plotpage"
)

// Sentinel validation errors.
var (
	ErrInvalidPort      = errors.New("server.port must be between 1 and 65535")
	ErrInvalidEndpoint  = errors.New("mediawiki.endpoint must be an absolute http(s) URL")
	ErrInvalidTimeout   = errors.New("timeouts must be positive")
	ErrInvalidBins      = errors.New("render.histogram_bins must be between 1 and 500")
	ErrInvalidTheme     = errors.New("render.theme must be dark or light")
	ErrInvalidTab       = errors.New("render.active_tab must be histogram, calendar or pie")
	ErrInvalidCacheSize = errors.New("cache.max_entries must be positive")
	ErrInvalidLogLevel  = errors.New("logging.level must be debug, info, warn or error")
)

// Config holds all wikirevs configuration.
type Config struct {
	MediaWiki MediaWikiConfig `mapstructure:"mediawiki"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Aggregate AggregateConfig `mapstructure:"aggregate"`
	Render    RenderConfig    `mapstructure:"render"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// MediaWikiConfig selects the wiki and how to talk to it.
type MediaWikiConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds the response cache settings.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	MaxEntries int           `mapstructure:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl"`
}

// AggregateConfig holds aggregation toggles.
type AggregateConfig struct {
	CollapseSingleEdits bool `mapstructure:"collapse_single_edits"`
}

// RenderConfig holds dashboard settings.
type RenderConfig struct {
	Theme         string `mapstructure:"theme"`
	ActiveTab     string `mapstructure:"active_tab"`
	HistogramBins int    `mapstructure:"histogram_bins"`
}

// ServerConfig holds HTTP dashboard settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Environment  string `mapstructure:"environment"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	// OTLPHeaders is "key=value,key=value"; empty falls back to
	// OTEL_EXPORTER_OTLP_HEADERS.
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	err := c.validateMediaWiki()
	if err != nil {
		return err
	}

	if c.Cache.Enabled && c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.Cache.MaxEntries)
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache.ttl %s", ErrInvalidTimeout, c.Cache.TTL)
	}

	err = c.validateRender()
	if err != nil {
		return err
	}

	err = c.validateServer()
	if err != nil {
		return err
	}

	_, err = parseLevel(c.Logging.Level)

	return err
}

func (c *Config) validateMediaWiki() error {
	u, err := url.Parse(c.MediaWiki.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.MediaWiki.Endpoint)
	}

	if c.MediaWiki.Timeout <= 0 {
		return fmt.Errorf("%w: mediawiki.timeout %s", ErrInvalidTimeout, c.MediaWiki.Timeout)
	}

	return nil
}

func (c *Config) validateRender() error {
	_, err := plotpage.ParseTheme(c.Render.Theme)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, c.Render.Theme)
	}

	if !charts.ValidTab(c.Render.ActiveTab) {
		return fmt.Errorf("%w: %q", ErrInvalidTab, c.Render.ActiveTab)
	}

	if c.Render.HistogramBins <= 0 || c.Render.HistogramBins > maxHistogramBins {
		return fmt.Errorf("%w: %d", ErrInvalidBins, c.Render.HistogramBins)
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	for name, d := range map[string]time.Duration{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"server.idle_timeout":  c.Server.IdleTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s %s", ErrInvalidTimeout, name, d)
		}
	}

	return nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}
}

// AggregateOptions returns the aggregation options.
func (c *Config) AggregateOptions() aggregate.Options {
	return aggregate.Options{CollapseSingleEdits: c.Aggregate.CollapseSingleEdits}
}

// ChartsConfig returns the dashboard settings. Call after Validate.
func (c *Config) ChartsConfig() charts.Config {
	cfg := charts.DefaultConfig()

	theme, err := plotpage.ParseTheme(c.Render.Theme)
	if err == nil {
		cfg.Theme = theme
	}

	cfg.ActiveTab = c.Render.ActiveTab
	cfg.HistogramBins = c.Render.HistogramBins

	return cfg
}

// ClientOptions returns the MediaWiki client settings, including a response
// cache when enabled. Logger, tracer and metrics are left to the caller.
func (c *Config) ClientOptions() mediawiki.Options {
	opts := mediawiki.Options{
		Endpoint:  c.MediaWiki.Endpoint,
		UserAgent: c.MediaWiki.UserAgent,
		Timeout:   c.MediaWiki.Timeout,
	}

	if c.Cache.Enabled {
		opts.Cache = mediawiki.NewResponseCache(c.Cache.MaxEntries, c.Cache.TTL)
	}

	return opts
}

// Observability returns the telemetry settings for the given mode.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	cfg := observability.DefaultConfig()
	cfg.Mode = mode
	cfg.ServiceVersion = version
	cfg.Environment = c.Telemetry.Environment
	cfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	cfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	cfg.SampleRatio = c.Telemetry.SampleRatio

	headers := c.Telemetry.OTLPHeaders
	if headers == "" {
		headers = os.Getenv(envOTLPHeaders)
	}

	cfg.OTLPHeaders = observability.ParseOTLPHeaders(headers)
	cfg.LogJSON = strings.EqualFold(c.Logging.Format, "json")

	level, err := parseLevel(c.Logging.Level)
	if err == nil {
		cfg.LogLevel = level
	}

	return cfg
}
