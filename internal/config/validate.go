package config

import "fmt"

// Validate checks configuration values for errors. Missing credentials
// are not errors: the server degrades features instead of refusing to
// start, so only values that would break the process are rejected.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}

	switch cfg.Google.PlacesAPI {
	case "", "classic", "new":
	default:
		return fmt.Errorf("google places_api must be classic or new, got %q", cfg.Google.PlacesAPI)
	}

	return nil
}
