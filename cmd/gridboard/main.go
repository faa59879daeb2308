package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/components/dashboard/commands"
	"github.com/goliatone/go-gridboard/components/dashboard/httpapi"
	"github.com/goliatone/go-gridboard/pkg/config"
	"github.com/goliatone/go-gridboard/pkg/logging"
)

type cli struct {
	Config string `type:"path" short:"c" help:"Path to gridboard.yaml (defaults to ./gridboard.yaml when present)."`
}

func main() {
	var args cli
	kong.Parse(&args,
		kong.Description("Dashboard backend: widget catalog, saved layouts and composed grids."),
		kong.UsageOnError(),
	)
	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "gridboard: %v\n", err)
		os.Exit(1)
	}
}

func run(args cli) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(args.Config)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	stores, err := openStores(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer stores.close()
	logger.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	events := dashboard.NewBroadcastHook()
	telemetry := dashboard.NewZapTelemetry(logger)
	service := dashboard.NewService(dashboard.Options{
		CatalogStore: stores.catalog,
		ConfigStore:  stores.configs,
		Partners:     dashboard.NewStaticPartnerDirectory(dashboard.DemoPartners()...),
		RefreshHook:  events,
		Telemetry:    telemetry,
		Logger:       logger,
		RowHeight:    cfg.Grid.RowHeight,
	})

	seed := commands.NewSeedCatalogCommand(service, telemetry)
	if err := seed.Execute(ctx, commands.SeedCatalogInput{ManifestPath: cfg.Catalog.Manifest}); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("template renderer: %w", err)
	}
	handlers := httpapi.NewHandlers(httpapi.HandlerOptions{
		Service:    service,
		Events:     events,
		Controller: dashboard.NewController(dashboard.ControllerOptions{Service: service, Renderer: renderer}),
		Telemetry:  telemetry,
		Logger:     logger,
	})
	app := httpapi.NewApp(httpapi.AppOptions{
		Handlers:    handlers,
		JWTSecret:   cfg.Auth.JWTSecret,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr()))
		errCh <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
