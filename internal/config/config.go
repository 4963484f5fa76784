package config

import "time"

// Config represents the complete application configuration.
//
// Layers, lowest first: built-in defaults, the YAML config file, a `.env`
// file, FINSCREENER_* environment variables, then runtime overrides (flags).
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Tools   ToolsConfig   `mapstructure:"tools" yaml:"tools"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Health  HealthConfig  `mapstructure:"health" yaml:"health"`

	// Source is the config file that was read, if any.
	Source string `mapstructure:"-" yaml:"-"`
}

// APIConfig configures the upstream Finscreener API.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Key is either an exchangeable `fsk_` key or a pre-issued bearer token.
	Key             string        `mapstructure:"key" yaml:"key"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	AuthTimeout     time.Duration `mapstructure:"auth_timeout" yaml:"auth_timeout"`
	TokenTTL        time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	ScreenerTimeout time.Duration `mapstructure:"screener_timeout" yaml:"screener_timeout"`
}

// ToolsConfig controls how tool results are rendered.
type ToolsConfig struct {
	// OutputFormat is json or markdown
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
}

// ServerConfig contains MCP transport configuration
type ServerConfig struct {
	// Transport is stdio or http
	Transport       string          `mapstructure:"transport" yaml:"transport"`
	Host            string          `mapstructure:"host" yaml:"host"`
	Port            int             `mapstructure:"port" yaml:"port"`
	MCPPath         string          `mapstructure:"mcp_path" yaml:"mcp_path"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration   `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	// AdminToken enables POST /admin/signal when set
	AdminToken string `mapstructure:"admin_token" yaml:"admin_token,omitempty"`
}

// RateLimitConfig throttles inbound HTTP requests. Zero disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether /metrics is exposed on the HTTP transport
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}
