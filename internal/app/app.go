// Package app wires configuration into the planetary hours service and runs
// the REST server until shutdown.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/planetaryhours/internal/controllers/restserver"
	"github.com/chrissnell/planetaryhours/internal/elevation"
	"github.com/chrissnell/planetaryhours/internal/hourapi"
	"github.com/chrissnell/planetaryhours/internal/log"
	"github.com/chrissnell/planetaryhours/internal/planetary"
	"github.com/chrissnell/planetaryhours/internal/service"
	"github.com/chrissnell/planetaryhours/pkg/config"
	"github.com/chrissnell/planetaryhours/pkg/solar"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = log.GetSugaredLogger()
	}
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// NewService builds the service described by cfg
func NewService(cfg *config.ConfigData, logger *zap.SugaredLogger, opts ...service.Option) (*service.Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	sun := planetary.Astronomical{Calc: solar.New(cfg.Solar.Algorithm)}

	rulers, err := newRulerSource(cfg.Rulers, logger)
	if err != nil {
		return nil, err
	}

	elev := elevation.NewResolver(elevation.Config{
		URL:               cfg.Elevation.URL,
		Timeout:           cfg.Elevation.Timeout,
		RequestsPerSecond: cfg.Elevation.RequestsPerSecond,
	}, logger.Named("elevation"))

	defaults := service.Defaults{
		Latitude:        cfg.Location.Latitude,
		Longitude:       cfg.Location.Longitude,
		TZOffsetMinutes: cfg.Location.TZOffsetMinutes,
		OffsetPercent:   cfg.Defaults.OffsetPercent,
		UseOffset:       cfg.Defaults.OffsetEnabled(),
		Anchors:         cfg.Defaults.Anchors,
	}

	opts = append([]service.Option{service.WithLogger(logger.Named("service"))}, opts...)
	return service.New(sun, rulers, elev, defaults, opts...), nil
}

func newRulerSource(rc config.RulersData, logger *zap.SugaredLogger) (planetary.RulerSource, error) {
	switch rc.Source {
	case "", "local":
		return planetary.SequenceSource{Sequence: planetary.RulerSequence(rc.Sequence)}, nil
	case "api":
		return hourapi.NewClient(rc.URL, rc.Timeout, logger.Named("hourapi")), nil
	default:
		return nil, fmt.Errorf("unknown ruler source %q", rc.Source)
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	defer a.configProvider.Close()

	svc, err := NewService(cfg, a.logger)
	if err != nil {
		return err
	}

	rest, err := restserver.NewController(ctx, &wg, cfg.Server, svc, a.logger.Named("rest"))
	if err != nil {
		return fmt.Errorf("error creating REST server: %w", err)
	}
	if err := rest.StartController(); err != nil {
		return fmt.Errorf("error starting REST server: %w", err)
	}

	a.logger.Infow("application started successfully",
		"latitude", cfg.Location.Latitude,
		"longitude", cfg.Location.Longitude,
		"solar", cfg.Solar.Algorithm,
		"rulers", cfg.Rulers.Source)

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
