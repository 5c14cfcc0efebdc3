package config

import (
	"fmt"
	"os"
	"strings"
)

var validSourceTypes = []string{"evm", "dexagg"}

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	if err := cfg.Oracle.ToOracle().Validate(); err != nil {
		return fmt.Errorf("oracle config: %w", err)
	}

	if err := validateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history config: %w", ErrHistoryPathRequired)
	}

	if len(cfg.Sources) == 0 {
		return ErrNoSourcesConfigured
	}
	seen := make(map[string]bool)
	for i, source := range cfg.Sources {
		if err := validateSourceConfig(&source); err != nil {
			return fmt.Errorf("source %d (%s): %w", i, source.Key(), err)
		}
		if seen[source.Key()] {
			return fmt.Errorf("source %d: %w: %s", i, ErrDuplicateSource, source.Key())
		}
		seen[source.Key()] = true
	}
	if len(cfg.EnabledSources()) == 0 {
		return ErrNoSourcesEnabled
	}

	// Validate logging config
	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateServerConfig(cfg *ServerConfig) error {
	// Validate TLS config
	if cfg.HTTP.TLS.Enabled {
		if cfg.HTTP.TLS.Cert == "" || cfg.HTTP.TLS.Key == "" {
			return ErrTLSConfigIncomplete
		}
		if _, err := os.Stat(cfg.HTTP.TLS.Cert); err != nil {
			return fmt.Errorf("%w: %s", ErrTLSCertNotFound, cfg.HTTP.TLS.Cert)
		}
		if _, err := os.Stat(cfg.HTTP.TLS.Key); err != nil {
			return fmt.Errorf("%w: %s", ErrTLSKeyNotFound, cfg.HTTP.TLS.Key)
		}
	}

	if cfg.Admin.Enabled && cfg.Admin.Token == "" {
		return ErrAdminTokenRequired
	}

	return nil
}

func validateSourceConfig(cfg *SourceConfig) error {
	typeValid := false
	for _, t := range validSourceTypes {
		if strings.ToLower(cfg.Type) == t {
			typeValid = true
			break
		}
	}
	if !typeValid {
		return fmt.Errorf("%w: %q (must be one of: %s)", ErrInvalidSourceType, cfg.Type, strings.Join(validSourceTypes, ", "))
	}

	if cfg.Name == "" {
		return ErrSourceNameRequired
	}

	if cfg.Priority < 0 {
		return ErrInvalidPriority
	}

	return nil
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	// Validate level
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, l := range validLevels {
		if strings.ToLower(cfg.Level) == l {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLogLevel, cfg.Level, strings.Join(validLevels, ", "))
	}

	// Validate format
	formatValid := strings.ToLower(cfg.Format) == "json" || strings.ToLower(cfg.Format) == "text"
	if !formatValid {
		return fmt.Errorf("%w: %s (must be 'json' or 'text')", ErrInvalidLogFormat, cfg.Format)
	}

	return nil
}
