// Package config provides application-wide configuration loaded from a .env
// file, an optional YAML file and environment variables (in increasing order
// of precedence). All fields have safe defaults so the binary runs locally in
// mock mode without any setup beyond MCP_API_KEY.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend modes.
const (
	ModeMock = "mock"
	ModeLive = "live"
)

var (
	ErrMissingAPIKey = errors.New("missing MCP_API_KEY environment variable")
	ErrInvalidAPIKey = errors.New("invalid MCP_API_KEY")
	ErrInvalidMode   = errors.New("invalid backend mode")
)

// Config holds runtime configuration for netsuite-mcp.
type Config struct {
	// Access
	APIKey         string        // MCP_API_KEY: supplied credential, also the process default
	ExpectedAPIKey string        // MCP_EXPECTED_API_KEY, default: "default_key"
	TokenTTL       time.Duration // TOKEN_TTL, default: 1h

	// Backend
	Mode           string        // NETSUITE_MODE, default: "mock"
	FixturesPath   string        // NETSUITE_FIXTURES, default: "mocks/netsuite.json"
	BackendTimeout time.Duration // NETSUITE_BACKEND_TIMEOUT, default: 30s

	// Cache
	CacheMaxEntries int                      // CACHE_MAX_ENTRIES, default: 100
	CacheTTL        map[string]time.Duration // YAML only: per-operation TTL overrides

	// Logging
	LogLevel  string // LOG_LEVEL, default: "info"
	LogFormat string // LOG_FORMAT, default: "json"
	LogFile   string // LOG_FILE, default: "" (stderr)

	// HTTP surface
	HTTPAddr string // HTTP_ADDR, default: ":8080"
}

const (
	envKeyAPIKey          = "MCP_API_KEY"
	envKeyExpectedAPIKey  = "MCP_EXPECTED_API_KEY"
	envKeyTokenTTL        = "TOKEN_TTL"
	envKeyMode            = "NETSUITE_MODE"
	envKeyFixtures        = "NETSUITE_FIXTURES"
	envKeyBackendTimeout  = "NETSUITE_BACKEND_TIMEOUT"
	envKeyCacheMaxEntries = "CACHE_MAX_ENTRIES"
	envKeyLogLevel        = "LOG_LEVEL"
	envKeyLogFormat       = "LOG_FORMAT"
	envKeyLogFile         = "LOG_FILE"
	envKeyHTTPAddr        = "HTTP_ADDR"
	envKeyConfigFile      = "NETSUITE_MCP_CONFIG"
	envKeyDotenv          = "NETSUITE_MCP_DOTENV"

	defaultExpectedAPIKey = "default_key"
)

// fileConfig mirrors the YAML config file layout.
type fileConfig struct {
	Mode           string `yaml:"mode"`
	Fixtures       string `yaml:"fixtures"`
	BackendTimeout string `yaml:"backend_timeout"`
	TokenTTL       string `yaml:"token_ttl"`
	Cache          struct {
		MaxEntries int               `yaml:"max_entries"`
		TTL        map[string]string `yaml:"ttl"`
	} `yaml:"cache"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"log"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ExpectedAPIKey:  defaultExpectedAPIKey,
		TokenTTL:        time.Hour,
		Mode:            ModeMock,
		FixturesPath:    "mocks/netsuite.json",
		BackendTimeout:  30 * time.Second,
		CacheMaxEntries: 100,
		CacheTTL:        map[string]time.Duration{},
		LogLevel:        "info",
		LogFormat:       "json",
		HTTPAddr:        ":8080",
	}
}

// Load reads configuration, applying defaults for missing values.
// A missing .env file is not an error; a malformed YAML file is.
func Load() (Config, error) {
	// godotenv never overrides variables that are already set.
	_ = godotenv.Load(envOr(envKeyDotenv, ".env")) //nolint:errcheck

	cfg := Default()

	if path := os.Getenv(envKeyConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if cfg.Mode != ModeMock && cfg.Mode != ModeLive {
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	c.Mode = coalesce(fc.Mode, c.Mode)
	c.FixturesPath = coalesce(fc.Fixtures, c.FixturesPath)
	c.LogLevel = coalesce(fc.Log.Level, c.LogLevel)
	c.LogFormat = coalesce(fc.Log.Format, c.LogFormat)
	c.LogFile = coalesce(fc.Log.File, c.LogFile)
	c.HTTPAddr = coalesce(fc.HTTP.Addr, c.HTTPAddr)
	if fc.Cache.MaxEntries > 0 {
		c.CacheMaxEntries = fc.Cache.MaxEntries
	}

	if c.BackendTimeout, err = durationOr(fc.BackendTimeout, c.BackendTimeout); err != nil {
		return fmt.Errorf("config: backend_timeout: %w", err)
	}
	if c.TokenTTL, err = durationOr(fc.TokenTTL, c.TokenTTL); err != nil {
		return fmt.Errorf("config: token_ttl: %w", err)
	}

	for op, raw := range fc.Cache.TTL {
		d, parseErr := time.ParseDuration(raw)
		if parseErr != nil {
			return fmt.Errorf("config: cache ttl for %s: %w", op, parseErr)
		}
		c.CacheTTL[op] = d
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	c.APIKey = os.Getenv(envKeyAPIKey)
	c.ExpectedAPIKey = envOr(envKeyExpectedAPIKey, c.ExpectedAPIKey)
	c.Mode = strings.ToLower(envOr(envKeyMode, c.Mode))
	c.FixturesPath = envOr(envKeyFixtures, c.FixturesPath)
	c.LogLevel = envOr(envKeyLogLevel, c.LogLevel)
	c.LogFormat = envOr(envKeyLogFormat, c.LogFormat)
	c.LogFile = envOr(envKeyLogFile, c.LogFile)
	c.HTTPAddr = envOr(envKeyHTTPAddr, c.HTTPAddr)

	if c.BackendTimeout, err = durationOr(os.Getenv(envKeyBackendTimeout), c.BackendTimeout); err != nil {
		return fmt.Errorf("config: %s: %w", envKeyBackendTimeout, err)
	}
	if c.TokenTTL, err = durationOr(os.Getenv(envKeyTokenTTL), c.TokenTTL); err != nil {
		return fmt.Errorf("config: %s: %w", envKeyTokenTTL, err)
	}

	if v := os.Getenv(envKeyCacheMaxEntries); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n <= 0 {
			return fmt.Errorf("config: %s must be a positive integer, got %q", envKeyCacheMaxEntries, v)
		}
		c.CacheMaxEntries = n
	}
	return nil
}

// CheckAPIKey enforces the startup rule: the supplied key must be present and
// equal to the expected secret.
func (c Config) CheckAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.APIKey != c.ExpectedAPIKey {
		return ErrInvalidAPIKey
	}
	return nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func coalesce(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}

func durationOr(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, err
	}
	if d <= 0 {
		return fallback, fmt.Errorf("duration must be positive, got %s", raw)
	}
	return d, nil
}
