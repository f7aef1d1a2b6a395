package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"signal_relay/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent identifies the relay on outbound calls
	DefaultUserAgent = "signal-relay/1.0"

	// DefaultTelegramBaseURL is the public Bot API host
	DefaultTelegramBaseURL = "https://api.telegram.org"
)

// Config holds all relay settings.
// LoadConfig reads the YAML file first, then lets RELAY_* environment variables override it.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
		WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	} `yaml:"server"`

	Relay struct {
		EnrichmentTimeoutSec int    `yaml:"enrichment_timeout_sec"`
		MessagingTimeoutSec  int    `yaml:"messaging_timeout_sec"`
		TelegramBaseURL      string `yaml:"telegram_base_url"`
	} `yaml:"relay"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"` // empty disables file output
	} `yaml:"logging"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "signal-relay"
	cfg.App.Version = "1.0.0"
	cfg.Server.Addr = ":8080"
	cfg.Server.ReadTimeoutSec = 10
	cfg.Server.WriteTimeoutSec = 70 // must outlast the enrichment deadline plus the send
	cfg.Relay.EnrichmentTimeoutSec = 50
	cfg.Relay.MessagingTimeoutSec = 10
	cfg.Relay.TelegramBaseURL = DefaultTelegramBaseURL
	cfg.Logging.Level = "info"
	cfg.Metrics.Enabled = true
	return &cfg
}

// LoadConfig reads and validates the configuration.
// A missing file is not an error; defaults and the environment apply.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Relay.EnrichmentTimeoutSec <= 0 {
		return &domain.ConfigError{Field: "relay.enrichment_timeout_sec", Err: errors.New("must be positive")}
	}
	if c.Relay.MessagingTimeoutSec <= 0 {
		return &domain.ConfigError{Field: "relay.messaging_timeout_sec", Err: errors.New("must be positive")}
	}
	if !strings.HasPrefix(c.Relay.TelegramBaseURL, "http://") && !strings.HasPrefix(c.Relay.TelegramBaseURL, "https://") {
		return &domain.ConfigError{Field: "relay.telegram_base_url", Err: fmt.Errorf("invalid URL %q", c.Relay.TelegramBaseURL)}
	}
	if c.Server.Addr == "" {
		return &domain.ConfigError{Field: "server.addr", Err: errors.New("required")}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}

	return nil
}

// EnrichmentTimeout is the deadline raced against the secondary API call
func (c *Config) EnrichmentTimeout() time.Duration {
	return time.Duration(c.Relay.EnrichmentTimeoutSec) * time.Second
}

// MessagingTimeout bounds a single send to the bot API
func (c *Config) MessagingTimeout() time.Duration {
	return time.Duration(c.Relay.MessagingTimeoutSec) * time.Second
}

// overrideWithEnv replaces values when the matching environment variable is set.
func overrideWithEnv(cfg *Config) error {
	if v := os.Getenv("RELAY_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RELAY_TELEGRAM_BASE_URL"); v != "" {
		cfg.Relay.TelegramBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("RELAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("RELAY_LOG_FILE"); ok {
		cfg.Logging.File = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"RELAY_ENRICHMENT_TIMEOUT_SEC", &cfg.Relay.EnrichmentTimeoutSec},
		{"RELAY_MESSAGING_TIMEOUT_SEC", &cfg.Relay.MessagingTimeoutSec},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return &domain.ConfigError{Field: e.key, Err: err}
		}
		*e.dst = n
	}

	if v := os.Getenv("RELAY_METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &domain.ConfigError{Field: "RELAY_METRICS_ENABLED", Err: err}
		}
		cfg.Metrics.Enabled = b
	}

	return nil
}
