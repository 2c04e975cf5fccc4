package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pythia-analytics/pythia-forecast/internal/cache"
	"github.com/pythia-analytics/pythia-forecast/internal/controllers/refresher"
	"github.com/pythia-analytics/pythia-forecast/internal/controllers/restserver"
	"github.com/pythia-analytics/pythia-forecast/internal/database"
	"github.com/pythia-analytics/pythia-forecast/internal/forecast"
	"github.com/pythia-analytics/pythia-forecast/internal/forecast/model"
	"github.com/pythia-analytics/pythia-forecast/internal/log"
	"github.com/pythia-analytics/pythia-forecast/pkg/config"
	"go.uber.org/zap"
)

// Defaults applied when the config omits the corresponding keys.
const (
	DefaultHorizonDays = 14
	DefaultCacheTTL    = 15 * time.Minute
)

// store is the combined persistence surface the app wires up. Both database
// backends satisfy it.
type store interface {
	forecast.EventStore
	forecast.ForecastStore
	SaveForecast(ctx context.Context, result *forecast.Result) error
	Close() error
}

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	db, err := openStore(cfg.Database, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	horizon := cfg.Forecast.HorizonDays
	if horizon <= 0 {
		a.logger.Infof("forecast.horizon-days not provided; defaulting to %d", DefaultHorizonDays)
		horizon = DefaultHorizonDays
	}

	ttl := cfg.Forecast.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	engine := forecast.NewEngine(model.NewHarmonic, time.Now, a.logger)
	validator := forecast.NewValidator(model.NewHarmonic, db, db, cfg.Forecast.ValidationStrategy, time.Now, a.logger)
	pipeline := forecast.NewPipeline(db, engine, validator, horizon, time.Now, a.logger)

	rest, err := restserver.NewController(ctx, &wg, cfg.HTTP, pipeline, cache.New(ttl), true, a.logger)
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	refresh, err := refresher.NewController(ctx, &wg, cfg.Forecast.RefreshCron, pipeline, db, a.logger)
	if err != nil {
		return err
	}
	if err := refresh.StartController(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// openStore selects the configured database backend. Postgres wins when both
// are present.
func openStore(dbConfig config.DatabaseData, logger *zap.SugaredLogger) (store, error) {
	switch {
	case dbConfig.Postgres != nil:
		client, err := database.NewClient(dbConfig.Postgres.ConnectionString, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case dbConfig.SQLite != nil:
		s, err := database.NewSQLiteStore(dbConfig.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("no database configured; provide database.postgres or database.sqlite")
	}
}
