// Package config provides centralized configuration management for
// finscreener-mcp, layering defaults, a YAML file, a `.env` file and
// FINSCREENER_* environment variables through viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/finscreener/finscreener-mcp/internal/core/auth"
)

const (
	// AppName names the config directory and the binary.
	AppName = "finscreener-mcp"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FINSCREENER"

	// Legacy variable names that predate the FINSCREENER_<SECTION>_<KEY> scheme.
	EnvAPIBase = "FINSCREENER_API_BASE"
	EnvAPIKey  = "FINSCREENER_API_KEY"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit config path; empty searches the defaults.
	ConfigFile string
	// EnvFile is the dotenv file to load; empty means ".env".
	EnvFile string
	// SkipEnvFile disables dotenv loading.
	SkipEnvFile bool
	// Overrides are applied last, keyed by dotted config path.
	Overrides map[string]any
}

// Load reads configuration from every layer and stores it as the current
// configuration. It is safe to call multiple times.
func Load(opts LoadOptions) (*Config, error) {
	if !opts.SkipEnvFile {
		if err := loadEnvFile(opts.EnvFile); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	SetDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		if dir := DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath("./config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("api.base_url", EnvAPIBase, EnvPrefix+"_API_BASE_URL")
	_ = v.BindEnv("api.key", EnvAPIKey)
	_ = v.BindEnv("server.admin_token", EnvPrefix+"_ADMIN_TOKEN")

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	SetConfig(&cfg)
	return &cfg, nil
}

// SetDefaults registers every configuration key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", auth.DefaultBaseURL)
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.auth_timeout", "30s")
	v.SetDefault("api.token_ttl", "50m")
	v.SetDefault("api.screener_timeout", "240s")

	v.SetDefault("tools.output_format", "json")

	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mcp_path", "/mcp")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit.requests_per_second", 0)
	v.SetDefault("server.rate_limit.burst", 20)

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("health.enabled", true)
}

func loadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	cfg.API.Key = strings.TrimSpace(cfg.API.Key)
	cfg.Tools.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.Tools.OutputFormat))
	cfg.Server.Transport = strings.ToLower(strings.TrimSpace(cfg.Server.Transport))
	if cfg.Server.MCPPath != "" && !strings.HasPrefix(cfg.Server.MCPPath, "/") {
		cfg.Server.MCPPath = "/" + cfg.Server.MCPPath
	}
}

// Validate rejects configuration that cannot work. Credential problems are
// not errors; see Warnings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.API.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}
	switch cfg.Tools.OutputFormat {
	case "json", "markdown":
	default:
		return fmt.Errorf("tools.output_format must be json or markdown, got %q", cfg.Tools.OutputFormat)
	}
	switch cfg.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("server.transport must be stdio or http, got %q", cfg.Server.Transport)
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	for name, d := range map[string]time.Duration{
		"api.timeout":      cfg.API.Timeout,
		"api.auth_timeout": cfg.API.AuthTimeout,
		"api.token_ttl":    cfg.API.TokenTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// Warnings returns non-fatal configuration problems to log at startup.
func Warnings(cfg *Config) []string {
	if cfg == nil {
		return nil
	}
	return auth.ConfigWarnings(cfg.API.Key)
}

// DefaultConfigDir returns the per-user config directory for the app.
func DefaultConfigDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, AppName)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName)
}

// DefaultConfigPath returns the path to the user config file.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// GetConfig returns the current application configuration
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// SetConfig sets the current application configuration
func SetConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// Redacted returns a copy safe to print, with secrets masked.
func (c Config) Redacted() Config {
	c.API.Key = MaskSecret(c.API.Key)
	c.Server.AdminToken = MaskSecret(c.Server.AdminToken)
	return c
}

// MaskSecret keeps a short recognizable prefix of a secret.
func MaskSecret(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	default:
		return secret[:4] + "****" + secret[len(secret)-2:]
	}
}
