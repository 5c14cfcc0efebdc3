package sources

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PennybagsCX/Dogepump-Dogechain-Memecoin-Launcher-sub000/pkg/logging"
)

// GetLoggerFromConfig extracts logger from config map or returns a noop logger.
// main.go injects the process logger under the "logger" key.
func GetLoggerFromConfig(config map[string]interface{}) *logging.Logger {
	if loggerInterface, ok := config["logger"]; ok {
		if logger, ok := loggerInterface.(*logging.Logger); ok {
			return logger
		}
	}

	return logging.NewNoopLogger()
}

// ParsePrice parses a decimal price string as returned by aggregator APIs.
// Empty strings and non-numeric values are errors, never a zero price.
func ParsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidPrice, raw, err)
	}

	return d.InexactFloat64(), nil
}

// GetString returns a string config value or the default.
func GetString(config map[string]interface{}, key, defaultVal string) string {
	if v, ok := config[key].(string); ok && v != "" {
		return v
	}
	return defaultVal
}

// GetInt returns an int config value or the default. YAML numbers may
// arrive as int, int64 or float64.
func GetInt(config map[string]interface{}, key string, defaultVal int) int {
	switch v := config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultVal
	}
}

// GetBool returns a bool config value or the default.
func GetBool(config map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := config[key].(bool); ok {
		return v
	}
	return defaultVal
}

// GetDuration parses a duration string ("10s") from config, falling back to
// the default when the key is missing. A malformed value is an error.
func GetDuration(config map[string]interface{}, key string, defaultVal time.Duration) (time.Duration, error) {
	raw, ok := config[key]
	if !ok {
		return defaultVal, nil
	}

	switch v := raw.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
		}
		return d, nil
	case time.Duration:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: %s is %T", ErrInvalidConfig, key, raw)
	}
}
