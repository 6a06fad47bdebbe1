// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Table    TableConfig
	Export   ExportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SourceConfig holds the published sheet location and fetch settings.
type SourceConfig struct {
	// CSVURL is a direct CSV URL; it takes precedence over SheetID
	CSVURL string `env:"CSV_URL" envAlt:"VITE_CSV_URL"`

	// SheetID is the Google Sheets document ID. Setting SHEET_ID to an empty
	// value disables the built-in default sheet.
	SheetID string `env:"SHEET_ID" envAlt:"VITE_SHEET_ID" default:"14_LmYmNlC6pTaHo6nCr292XhSnImzN-G5yef8EUUGC4" allowEmpty:"true"`

	// GID selects the tab within the document (default: 0)
	GID string `env:"SHEET_GID" envAlt:"VITE_SHEET_GID" default:"0"`

	// FetchTimeout bounds a single fetch; 0 means no timeout (default: 0s)
	FetchTimeout time.Duration `env:"SOURCE_FETCH_TIMEOUT" default:"0s"`

	// RefreshInterval reloads the sheet periodically; 0 disables it (default: 0s)
	RefreshInterval time.Duration `env:"SOURCE_REFRESH_INTERVAL" default:"0s"`

	// MaxBytes is the largest accepted response body (default: 32MB)
	MaxBytes int64 `env:"SOURCE_MAX_BYTES" default:"33554432"`
}

// TableConfig holds table shape settings.
type TableConfig struct {
	// ColumnCount is the fixed width every row is padded or cut to (default: 18)
	ColumnCount int `env:"TABLE_COLUMN_COUNT" default:"18"`

	// ColumnsFile replaces the built-in column registry with a TOML document
	ColumnsFile string `env:"TABLE_COLUMNS_FILE"`
}

// ExportConfig holds workbook export settings.
type ExportConfig struct {
	// Enabled controls the export endpoint and button (default: true)
	Enabled bool `env:"EXPORT_ENABLED" default:"true"`

	// SheetName is the worksheet name inside exported workbooks (default: aptviewer)
	SheetName string `env:"EXPORT_SHEET_NAME" default:"aptviewer"`

	// MaxConcurrent caps workbooks built at the same time (default: 4)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"4"`

	// MaxWait is how long an export waits for a free slot (default: 10s)
	MaxWait time.Duration `env:"EXPORT_MAX_WAIT" default:"10s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ExportLimit is requests per minute for export and reload endpoints (default: 10)
	ExportLimit int `env:"RATE_LIMIT_EXPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the JSON reload endpoint with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
