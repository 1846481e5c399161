package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const defaultPort = 3001

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: defaultPort,
		},
		Google: GoogleConfig{
			PlacesAPI: "classic",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads and parses a TOML config file over the defaults and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values. This supports the
// zero-config env-only deployment: no file is required.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> environment variables.
func Resolve(path string) (*Config, error) {
	cfg, err := LoadOrDefault(path)
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
