package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/example/volunteer-scheduler/internal/config"
	"github.com/example/volunteer-scheduler/internal/logging"
)

const serviceName = "volunteer-scheduler"

// version is overridden at build time with -ldflags.
var version = "dev"

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		slog.Error("volunteer-scheduler failed", "error", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      serviceName,
		Usage:     "Browse, book, and cancel volunteer sessions on a shared calendar.",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			sessionsCommand(),
			calendarCommand(),
		},
	}
}

// runtime bundles what every command needs after reading the environment.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
}

func loadRuntime(c *cli.Context) (runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return runtime{}, fmt.Errorf("load configuration: %w", err)
	}
	logger := logging.New(c.App.ErrWriter, cfg.LogLevel, cfg.LogFormat).With("service", serviceName)
	return runtime{cfg: cfg, logger: logger}, nil
}
