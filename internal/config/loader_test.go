package config

import (
	"os"
	"testing"
	"time"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"MATCHER_HTTP_PORT",
			"MATCHER_SQLITE_DSN",
			"MATCHER_GATEWAY_TIMEOUT",
			"MATCHER_MAX_INFLIGHT_FETCHES",
			"MATCHER_ALTERNATIVE_COUNT",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		t.Setenv("MATCHER_GOOGLE_CLIENT_ID", "client-id")
		t.Setenv("MATCHER_GOOGLE_CLIENT_SECRET", "client-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:matcher.db?_foreign_keys=on" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.GatewayTimeout != 5*time.Second {
			t.Fatalf("expected default gateway timeout 5s, got %s", cfg.GatewayTimeout)
		}
		if cfg.MaxInFlightFetches != 4 {
			t.Fatalf("expected default in-flight limit 4, got %d", cfg.MaxInFlightFetches)
		}
		if cfg.AlternativeCount != 4 {
			t.Fatalf("expected default alternative count 4, got %d", cfg.AlternativeCount)
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		for _, key := range []string{
			"MATCHER_GOOGLE_CLIENT_ID",
			"MATCHER_GOOGLE_CLIENT_SECRET",
			"MATCHER_HTTP_PORT",
			"MATCHER_SQLITE_DSN",
		} {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: MATCHER_GOOGLE_CLIENT_ID, MATCHER_GOOGLE_CLIENT_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		t.Setenv("MATCHER_GOOGLE_CLIENT_ID", "client-id")
		t.Setenv("MATCHER_GOOGLE_CLIENT_SECRET", "client-secret")
		t.Setenv("MATCHER_HTTP_PORT", "9090")
		t.Setenv("MATCHER_SQLITE_DSN", "file:/tmp/matcher.db")
		t.Setenv("MATCHER_GATEWAY_TIMEOUT", "2s")
		t.Setenv("MATCHER_MAX_INFLIGHT_FETCHES", "8")
		t.Setenv("MATCHER_ALTERNATIVE_COUNT", "2")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.GatewayTimeout != 2*time.Second {
			t.Fatalf("expected gateway timeout 2s, got %s", cfg.GatewayTimeout)
		}
		if cfg.MaxInFlightFetches != 8 {
			t.Fatalf("expected in-flight limit 8, got %d", cfg.MaxInFlightFetches)
		}
		if cfg.AlternativeCount != 2 {
			t.Fatalf("expected alternative count 2, got %d", cfg.AlternativeCount)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/matcher.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
	})

	t.Run("rejects malformed numeric values", func(t *testing.T) {
		t.Setenv("MATCHER_GOOGLE_CLIENT_ID", "client-id")
		t.Setenv("MATCHER_GOOGLE_CLIENT_SECRET", "client-secret")
		t.Setenv("MATCHER_HTTP_PORT", "not-a-port")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for malformed port")
		}
	})
}
