package config

import "time"

// MediaWiki defaults.
const (
	DefaultEndpoint = "https://en.wikipedia.org/w/api.php"
	DefaultTimeout  = 30 * time.Second
)

// Cache defaults.
const (
	DefaultCacheEnabled    = true
	DefaultCacheMaxEntries = 64
	DefaultCacheTTL        = 10 * time.Minute
)

// Aggregate defaults.
const (
	DefaultCollapseSingleEdits = false
)

// Render defaults.
const (
	DefaultTheme         = "dark"
	DefaultActiveTab     = "histogram"
	DefaultHistogramBins = 20
)

// Server defaults.
const (
	DefaultServerHost   = "127.0.0.1"
	DefaultServerPort   = 8080
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
)

// DefaultCORSOrigins allows any origin.
var DefaultCORSOrigins = []string{"*"}

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultEnvironment  = ""
	DefaultOTLPEndpoint = ""
	DefaultOTLPHeaders  = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 0.0
)

// envOTLPHeaders is the standard OTel exporter headers variable.
const envOTLPHeaders = "OTEL_EXPORTER_OTLP_HEADERS"

const (
	maxPort          = 65535
	maxHistogramBins = 500
)
