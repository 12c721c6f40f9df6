// Package config resolves console settings: built-in defaults, then an
// optional YAML file, then LIBADMIN_* environment variables. Command-line
// flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"library-admin/logger"
)

const appDir = "library-admin"

// Config is read once at startup and treated as immutable afterwards.
type Config struct {
	// Backend
	APIURL         string        `yaml:"api_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	RateBurst      int           `yaml:"rate_burst"`

	// Local state
	StatePath string `yaml:"state_path"`

	// Observability
	LogLevel    string `yaml:"log_level"`
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		APIURL:         "http://localhost:8080",
		RequestTimeout: 15 * time.Second,
		RateBurst:      5,
		StatePath:      defaultStatePath(),
		LogLevel:       "warn",
	}
}

// DefaultPath is where Load looks when no file is named.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", appDir, "config.yaml")
	}
	return filepath.Join(dir, appDir, "config.yaml")
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", appDir, "state.db")
	}
	return filepath.Join(dir, appDir, "state.db")
}

// Load builds the Config. With an empty path the default file is optional;
// a named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.readFile(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
		if err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) readFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.APIURL = getEnvString("LIBADMIN_API_URL", c.APIURL)
	c.StatePath = getEnvString("LIBADMIN_STATE_PATH", c.StatePath)
	c.RequestTimeout = getEnvDuration("LIBADMIN_REQUEST_TIMEOUT", c.RequestTimeout)
	c.RateLimit = getEnvFloat("LIBADMIN_RATE_LIMIT", c.RateLimit)
	c.RateBurst = getEnvInt("LIBADMIN_RATE_BURST", c.RateBurst)
	c.LogLevel = getEnvString("LIBADMIN_LOG_LEVEL", c.LogLevel)
	c.MetricsFile = getEnvString("LIBADMIN_METRICS_FILE", c.MetricsFile)
}

// Validate rejects settings the console cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.APIURL) == "" {
		problems = append(problems, "api_url is empty")
	} else if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		problems = append(problems, fmt.Sprintf("api_url %q is not an http(s) URL", c.APIURL))
	}
	if c.RequestTimeout <= 0 {
		problems = append(problems, "request_timeout must be positive")
	}
	if c.RateLimit < 0 {
		problems = append(problems, "rate_limit must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		problems = append(problems, "rate_burst must be at least 1")
	}
	if strings.TrimSpace(c.StatePath) == "" {
		problems = append(problems, "state_path is empty")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
