package app

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// MetadataPaths are files, directories or glob patterns holding sidecar
	// annotation metadata (.hcl, .yaml, .yml).
	MetadataPaths []string `env:"HOOKBIND_METADATA" envSeparator:","`

	LogFormat       string `env:"HOOKBIND_LOG_FORMAT" envDefault:"text"`
	LogLevel        string `env:"HOOKBIND_LOG_LEVEL" envDefault:"info"`
	HealthcheckPort int    `env:"HOOKBIND_HEALTHCHECK_PORT"`

	// RelayURL enables the socket.io relay when set.
	RelayURL       string `env:"HOOKBIND_RELAY_URL"`
	RelayNamespace string `env:"HOOKBIND_RELAY_NAMESPACE" envDefault:"/"`
	RelayInsecure  bool   `env:"HOOKBIND_RELAY_INSECURE"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns a normalised copy.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	if cfg.RelayNamespace == "" {
		cfg.RelayNamespace = "/"
	}
	return &cfg, nil
}
