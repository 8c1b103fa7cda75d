// Package config loads client settings. Precedence, highest first: command
// flags (applied by the caller), environment, a .env file, the config file
// at $AIDE_HOME/config.yaml, then defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAPIURL      = "http://localhost:8000"
	DefaultHTTPTimeout = 30 * time.Second
	FileName           = "config.yaml"
	homeDirName        = ".aide"
)

// Config is the resolved client configuration.
type Config struct {
	APIURL               string        `yaml:"api_url"`
	StripePublishableKey string        `yaml:"stripe_publishable_key"`
	HTTPTimeout          time.Duration `yaml:"http_timeout"`
	LogLevel             string        `yaml:"log_level"`
	LogFormat            string        `yaml:"log_format"`

	// Home holds the token, config file and log. Env only.
	Home string `yaml:"-"`
	// Token, when set, is used for this process instead of the stored one
	// and is never written to disk. Env only.
	Token string `yaml:"-"`
}

// Load reads .env from the working directory, then the config file and
// environment.
func Load() (*Config, error) {
	return LoadWithEnvFile(".env")
}

// LoadWithEnvFile is Load with an explicit .env path. A missing .env file is
// not an error.
func LoadWithEnvFile(envFile string) (*Config, error) {
	if envFile != "" {
		// godotenv never overrides variables already set.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	home, err := resolveHome()
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		APIURL:      DefaultAPIURL,
		HTTPTimeout: DefaultHTTPTimeout,
		LogLevel:    "info",
		LogFormat:   "text",
		Home:        home,
	}
	if err := cfg.readFile(filepath.Join(home, FileName)); err != nil {
		return nil, err
	}

	cfg.APIURL = strings.TrimRight(getEnv("AIDE_API_URL", cfg.APIURL), "/")
	cfg.StripePublishableKey = getEnv("AIDE_STRIPE_PUBLISHABLE_KEY", cfg.StripePublishableKey)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.Token = strings.TrimSpace(os.Getenv("AIDE_TOKEN"))
	if v := os.Getenv("AIDE_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: AIDE_HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: api url must be an http(s) URL, got %q", c.APIURL)
	}
	if c.StripePublishableKey != "" && !strings.HasPrefix(c.StripePublishableKey, "pk_") {
		return fmt.Errorf("config: stripe publishable key must start with pk_")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: http timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

// LogPath is where the file logger writes.
func (c *Config) LogPath() string {
	return filepath.Join(c.Home, "aide.log")
}

// Save writes the file-backed settings to $AIDE_HOME/config.yaml.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.Home, 0o700); err != nil {
		return fmt.Errorf("config: create %s: %w", c.Home, err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.Home, FileName), data, 0o600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

func resolveHome() (string, error) {
	if h := os.Getenv("AIDE_HOME"); h != "" {
		return h, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home dir: %w", err)
	}
	return filepath.Join(userHome, homeDirName), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
