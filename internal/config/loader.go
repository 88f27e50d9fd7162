package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config captures environment driven configuration values for the volunteer scheduler.
type Config struct {
	HTTPPort       int           `env:"VOLUNTEER_HTTP_PORT" envDefault:"8080"`
	Store          string        `env:"VOLUNTEER_STORE" envDefault:"sqlite"`
	SQLitePath     string        `env:"VOLUNTEER_SQLITE_PATH" envDefault:"volunteer.db"`
	PostgresDSN    string        `env:"VOLUNTEER_POSTGRES_DSN"`
	TokenSecret    string        `env:"VOLUNTEER_TOKEN_SECRET"`
	TokenTTL       time.Duration `env:"VOLUNTEER_TOKEN_TTL" envDefault:"24h"`
	ControllerIdle time.Duration `env:"VOLUNTEER_CONTROLLER_IDLE" envDefault:"30m"`
	NATSURL        string        `env:"VOLUNTEER_NATS_URL"`
	OTLPEndpoint   string        `env:"VOLUNTEER_OTLP_ENDPOINT"`
	LogLevel       string        `env:"VOLUNTEER_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"VOLUNTEER_LOG_FORMAT" envDefault:"json"`
}

// Load parses configuration values from the current process environment.
//
// Defaults come from struct tags. Every malformed or inconsistent variable is
// reported in a single error.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.TokenSecret = strings.TrimSpace(cfg.TokenSecret)

	invalid := make([]string, 0, 4)
	missing := make([]string, 0, 1)

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "VOLUNTEER_HTTP_PORT")
	}
	switch cfg.Store {
	case StoreSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			invalid = append(invalid, "VOLUNTEER_SQLITE_PATH")
		}
	case StorePostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			missing = append(missing, "VOLUNTEER_POSTGRES_DSN")
		}
	case StoreMemory:
	default:
		invalid = append(invalid, "VOLUNTEER_STORE")
	}
	if cfg.TokenTTL <= 0 {
		invalid = append(invalid, "VOLUNTEER_TOKEN_TTL")
	}
	// Zero keeps controllers for the life of the process.
	if cfg.ControllerIdle < 0 {
		invalid = append(invalid, "VOLUNTEER_CONTROLLER_IDLE")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "VOLUNTEER_LOG_LEVEL")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		invalid = append(invalid, "VOLUNTEER_LOG_FORMAT")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// RequireServe checks the settings only the HTTP server needs.
func (c Config) RequireServe() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("required environment variables are not set: VOLUNTEER_TOKEN_SECRET")
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
