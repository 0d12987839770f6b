package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the matcher service.
type Config struct {
	HTTPPort           int
	SQLiteDSN          string
	GoogleClientID     string
	GoogleClientSecret string
	GatewayTimeout     time.Duration
	MaxInFlightFetches int
	AlternativeCount   int
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields while validating required
// values, accumulating every missing or invalid entry into a single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:           8080,
		SQLiteDSN:          "file:matcher.db?_foreign_keys=on",
		GatewayTimeout:     5 * time.Second,
		MaxInFlightFetches: 4,
		AlternativeCount:   4,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("MATCHER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "MATCHER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("MATCHER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if clientID := strings.TrimSpace(os.Getenv("MATCHER_GOOGLE_CLIENT_ID")); clientID == "" {
		missing = append(missing, "MATCHER_GOOGLE_CLIENT_ID")
	} else {
		cfg.GoogleClientID = clientID
	}

	if clientSecret := strings.TrimSpace(os.Getenv("MATCHER_GOOGLE_CLIENT_SECRET")); clientSecret == "" {
		missing = append(missing, "MATCHER_GOOGLE_CLIENT_SECRET")
	} else {
		cfg.GoogleClientSecret = clientSecret
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("MATCHER_GATEWAY_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "MATCHER_GATEWAY_TIMEOUT")
		} else {
			cfg.GatewayTimeout = timeout
		}
	}

	if inflightValue := strings.TrimSpace(os.Getenv("MATCHER_MAX_INFLIGHT_FETCHES")); inflightValue != "" {
		inflight, err := strconv.Atoi(inflightValue)
		if err != nil || inflight <= 0 {
			invalid = append(invalid, "MATCHER_MAX_INFLIGHT_FETCHES")
		} else {
			cfg.MaxInFlightFetches = inflight
		}
	}

	if altValue := strings.TrimSpace(os.Getenv("MATCHER_ALTERNATIVE_COUNT")); altValue != "" {
		alternatives, err := strconv.Atoi(altValue)
		if err != nil || alternatives < 0 {
			invalid = append(invalid, "MATCHER_ALTERNATIVE_COUNT")
		} else {
			cfg.AlternativeCount = alternatives
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
