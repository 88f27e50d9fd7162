package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"VOLUNTEER_HTTP_PORT",
	"VOLUNTEER_STORE",
	"VOLUNTEER_SQLITE_PATH",
	"VOLUNTEER_POSTGRES_DSN",
	"VOLUNTEER_TOKEN_SECRET",
	"VOLUNTEER_TOKEN_TTL",
	"VOLUNTEER_CONTROLLER_IDLE",
	"VOLUNTEER_NATS_URL",
	"VOLUNTEER_OTLP_ENDPOINT",
	"VOLUNTEER_LOG_LEVEL",
	"VOLUNTEER_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		// Register restoration, then remove the variable for this test.
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.Store != StoreSQLite || cfg.SQLitePath != "volunteer.db" {
			t.Fatalf("unexpected store defaults: %+v", cfg)
		}
		if cfg.TokenTTL != 24*time.Hour {
			t.Fatalf("expected default TTL 24h, got %v", cfg.TokenTTL)
		}
		if cfg.ControllerIdle != 30*time.Minute {
			t.Fatalf("expected default controller idle 30m, got %v", cfg.ControllerIdle)
		}
		if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected logging defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
		}
		if err := cfg.RequireServe(); err == nil {
			t.Fatalf("expected serve to require a token secret")
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VOLUNTEER_HTTP_PORT", "9090")
		t.Setenv("VOLUNTEER_STORE", "Postgres")
		t.Setenv("VOLUNTEER_POSTGRES_DSN", "postgres://localhost/volunteers")
		t.Setenv("VOLUNTEER_TOKEN_SECRET", " s3cret ")
		t.Setenv("VOLUNTEER_TOKEN_TTL", "90m")
		t.Setenv("VOLUNTEER_LOG_FORMAT", "TEXT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.Store != StorePostgres || cfg.TokenTTL != 90*time.Minute || cfg.LogFormat != "text" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.TokenSecret != "s3cret" {
			t.Fatalf("expected trimmed secret, got %q", cfg.TokenSecret)
		}
		if err := cfg.RequireServe(); err != nil {
			t.Fatalf("RequireServe returned error: %v", err)
		}
	})

	t.Run("errors when postgres has no dsn", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VOLUNTEER_STORE", "postgres")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "VOLUNTEER_POSTGRES_DSN") {
			t.Fatalf("expected missing DSN error, got %v", err)
		}
	})

	t.Run("aggregates invalid values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VOLUNTEER_HTTP_PORT", "-1")
		t.Setenv("VOLUNTEER_STORE", "redis")
		t.Setenv("VOLUNTEER_LOG_LEVEL", "loud")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "invalid environment variables: VOLUNTEER_HTTP_PORT, VOLUNTEER_STORE, VOLUNTEER_LOG_LEVEL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("rejects negative controller idle", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VOLUNTEER_CONTROLLER_IDLE", "-1m")

		_, err := Load()
		if err == nil || err.Error() != "invalid environment variables: VOLUNTEER_CONTROLLER_IDLE" {
			t.Fatalf("expected invalid controller idle error, got %v", err)
		}
	})

	t.Run("reports unparsable values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VOLUNTEER_TOKEN_TTL", "soon")

		if _, err := Load(); err == nil || !strings.Contains(err.Error(), "TokenTTL") {
			t.Fatalf("expected TTL parse error, got %v", err)
		}
	})
}
