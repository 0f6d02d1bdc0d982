package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/wikirevs/pkg/config"
	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/plotpage"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".wikirevs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultEndpoint, cfg.MediaWiki.Endpoint)
	assert.Equal(t, config.DefaultTimeout, cfg.MediaWiki.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, config.DefaultCacheMaxEntries, cfg.Cache.MaxEntries)
	assert.Equal(t, config.DefaultCacheTTL, cfg.Cache.TTL)
	assert.False(t, cfg.Aggregate.CollapseSingleEdits)
	assert.Equal(t, config.DefaultTheme, cfg.Render.Theme)
	assert.Equal(t, config.DefaultActiveTab, cfg.Render.ActiveTab)
	assert.Equal(t, config.DefaultHistogramBins, cfg.Render.HistogramBins)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.Empty(t, cfg.Telemetry.OTLPEndpoint)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
mediawiki:
  endpoint: https://de.wikipedia.org/w/api.php
  timeout: 5s
cache:
  enabled: false
aggregate:
  collapse_single_edits: true
render:
  theme: light
  active_tab: pie
  histogram_bins: 40
server:
  port: 9000
  cors_origins: ["https://example.org"]
logging:
  level: debug
  format: json
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://de.wikipedia.org/w/api.php", cfg.MediaWiki.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.MediaWiki.Timeout)
	assert.False(t, cfg.Cache.Enabled)
	assert.True(t, cfg.AggregateOptions().CollapseSingleEdits)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://example.org"}, cfg.Server.CORSOrigins)

	charts := cfg.ChartsConfig()
	assert.Equal(t, plotpage.ThemeLight, charts.Theme)
	assert.Equal(t, "pie", charts.ActiveTab)
	assert.Equal(t, 40, charts.HistogramBins)

	obs := cfg.Observability(observability.ModeServe, "1.2.3")
	assert.Equal(t, slog.LevelDebug, obs.LogLevel)
	assert.True(t, obs.LogJSON)
	assert.Equal(t, observability.ModeServe, obs.Mode)
	assert.Equal(t, "1.2.3", obs.ServiceVersion)

	assert.Nil(t, cfg.ClientOptions().Cache, "cache disabled")
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		yaml string
		want error
	}{
		"port":          {"server:\n  port: 70000\n", config.ErrInvalidPort},
		"endpoint":      {"mediawiki:\n  endpoint: ftp://example.org\n", config.ErrInvalidEndpoint},
		"relative":      {"mediawiki:\n  endpoint: /w/api.php\n", config.ErrInvalidEndpoint},
		"fetch timeout": {"mediawiki:\n  timeout: 0s\n", config.ErrInvalidTimeout},
		"read timeout":  {"server:\n  read_timeout: -1s\n", config.ErrInvalidTimeout},
		"bins":          {"render:\n  histogram_bins: 0\n", config.ErrInvalidBins},
		"theme":         {"render:\n  theme: solarized\n", config.ErrInvalidTheme},
		"tab":           {"render:\n  active_tab: table\n", config.ErrInvalidTab},
		"cache size":    {"cache:\n  max_entries: 0\n", config.ErrInvalidCacheSize},
		"log level":     {"logging:\n  level: loud\n", config.ErrInvalidLogLevel},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tc.yaml))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadConfig_DisabledCacheSkipsSizeCheck(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "cache:\n  enabled: false\n  max_entries: 0\n"))
	require.NoError(t, err)
}

func TestLoadConfig_MalformedYAML_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "server: [port"))
	require.Error(t, err)
}

func TestLoadConfig_ExplicitPath_NotFound_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_EnvOverride_NestedKey(t *testing.T) {
	t.Setenv("WIKIREVS_SERVER_PORT", "9191")
	t.Setenv("WIKIREVS_RENDER_ACTIVE_TAB", "calendar")
	t.Setenv("WIKIREVS_AGGREGATE_COLLAPSE_SINGLE_EDITS", "true")

	cfg, err := config.LoadConfig(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "calendar", cfg.Render.ActiveTab)
	assert.True(t, cfg.Aggregate.CollapseSingleEdits)
}

func TestClientOptions_Cache(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "cache:\n  max_entries: 3\n"))
	require.NoError(t, err)

	opts := cfg.ClientOptions()
	require.NotNil(t, opts.Cache)
	assert.Equal(t, 3, opts.Cache.Stats().MaxEntries)
	assert.Equal(t, config.DefaultEndpoint, opts.Endpoint)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WIKIREVS_TEST_DOTENV=from-file\n"), 0o600))

	t.Setenv("WIKIREVS_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("WIKIREVS_TEST_DOTENV"))

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("WIKIREVS_TEST_DOTENV"))

	require.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")), "missing files are ignored")
}

func TestObservability_TelemetryKeys(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `
telemetry:
  environment: staging
  otlp_endpoint: collector:4317
  otlp_headers: "api-key=secret, team=wiki"
`))
	require.NoError(t, err)

	obs := cfg.Observability(observability.ModeMCP, "1.2.3")
	assert.Equal(t, "staging", obs.Environment)
	assert.Equal(t, "collector:4317", obs.OTLPEndpoint)
	assert.Equal(t, map[string]string{"api-key": "secret", "team": "wiki"}, obs.OTLPHeaders)
}

func TestObservability_HeadersFromOTelEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer x")

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"authorization": "Bearer x"},
		cfg.Observability(observability.ModeCLI, "dev").OTLPHeaders)

	cfg.Telemetry.OTLPHeaders = "team=wiki"
	assert.Equal(t, map[string]string{"team": "wiki"},
		cfg.Observability(observability.ModeCLI, "dev").OTLPHeaders)
}
