package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/example/volunteer-scheduler/internal/application"
	"github.com/example/volunteer-scheduler/internal/config"
	"github.com/example/volunteer-scheduler/internal/events"
	httptransport "github.com/example/volunteer-scheduler/internal/http"
	"github.com/example/volunteer-scheduler/internal/persistence"
	"github.com/example/volunteer-scheduler/internal/telemetry"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Action: func(c *cli.Context) error {
			rt, err := loadRuntime(c)
			if err != nil {
				return err
			}
			if err := rt.cfg.RequireServe(); err != nil {
				return err
			}
			return serve(c.Context, rt.cfg, rt.logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, serviceName, version, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	b, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(ctx, b, logger)

	var bookingEvents application.BookingEvents
	if cfg.NATSURL != "" {
		publisher, drain, err := events.Connect(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer drain()
		bookingEvents = publisher
		logger.InfoContext(ctx, "publishing booking events", "nats_url", cfg.NATSURL)
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newHandler(b.Store, bookingEvents, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.InfoContext(ctx, "volunteer scheduler API listening", "addr", server.Addr, "store", cfg.Store)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newHandler wires the application services behind the HTTP router.
func newHandler(store persistence.DocumentStore, bookingEvents application.BookingEvents, cfg config.Config, logger *slog.Logger) http.Handler {
	now := time.Now

	directory := application.NewDirectoryWithLogger(store, logger)
	ledger := application.NewLedgerWithLogger(store, bookingEvents, now, logger)
	auth := application.NewAuthServiceWithLogger(
		store,
		[]byte(cfg.TokenSecret),
		cfg.TokenTTL,
		application.HashPassword,
		application.VerifyPassword,
		now,
		logger,
	)

	registry := httptransport.NewControllerRegistryWithExpiry(func() *application.Controller {
		return application.NewControllerWithLogger(directory, ledger, httptransport.PrincipalAuth(), logger)
	}, cfg.ControllerIdle, now)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(auth, logger),
		Calendar:     httptransport.NewCalendarHandler(registry, directory, logger),
		Authenticate: httptransport.RequireToken(auth, logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
}
