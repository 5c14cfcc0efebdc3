// Package config provides configuration loading and validation for dcoracle.
package config

import "errors"

var (
	// ErrNoSourcesConfigured indicates that no price sources are configured.
	ErrNoSourcesConfigured = errors.New("at least one price source must be configured")
	// ErrNoSourcesEnabled indicates that no sources are enabled.
	ErrNoSourcesEnabled = errors.New("no sources enabled")
	// ErrInvalidSourceType indicates that the source type is invalid.
	ErrInvalidSourceType = errors.New("invalid source type")
	// ErrSourceNameRequired indicates that source name is required.
	ErrSourceNameRequired = errors.New("source name is required")
	// ErrInvalidPriority indicates a negative source priority.
	ErrInvalidPriority = errors.New("priority must be >= 0")
	// ErrDuplicateSource indicates the same source configured twice.
	ErrDuplicateSource = errors.New("duplicate source")
	// ErrTLSConfigIncomplete indicates that TLS config is incomplete.
	ErrTLSConfigIncomplete = errors.New("TLS cert and key must be specified when TLS is enabled")
	// ErrTLSCertNotFound indicates that the TLS cert file was not found.
	ErrTLSCertNotFound = errors.New("TLS cert file not found")
	// ErrTLSKeyNotFound indicates that the TLS key file was not found.
	ErrTLSKeyNotFound = errors.New("TLS key file not found")
	// ErrAdminTokenRequired indicates the override endpoint is enabled without a token.
	ErrAdminTokenRequired = errors.New("admin token must be set when admin is enabled")
	// ErrHistoryPathRequired indicates history is enabled without a database path.
	ErrHistoryPathRequired = errors.New("history path must be set when history is enabled")
	// ErrInvalidEnvOverride indicates an unparsable DCORACLE_* variable.
	ErrInvalidEnvOverride = errors.New("invalid environment override")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
)
