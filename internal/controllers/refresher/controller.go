// Package refresher regenerates the forecast on a schedule and owns the
// write path to the forecast store. Persisted runs are what live
// recalibration later scores against actuals.
package refresher

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/pythia-analytics/pythia-forecast/internal/forecast"
	"github.com/pythia-analytics/pythia-forecast/internal/log"
	"go.uber.org/zap"
)

// DefaultSchedule regenerates once a day, shortly after midnight UTC, so
// yesterday's counts are complete before they influence the model.
const DefaultSchedule = "15 0 * * *"

// Generator produces forecasts on demand.
type Generator interface {
	Generate(ctx context.Context) *forecast.Result
}

// ForecastWriter persists generated forecasts.
type ForecastWriter interface {
	SaveForecast(ctx context.Context, result *forecast.Result) error
}

// Controller runs the scheduled forecast refresh.
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	schedule  string
	generator Generator
	writer    ForecastWriter
	cron      *cron.Cron
	logger    *zap.SugaredLogger
}

// NewController validates the cron schedule and builds the refresher.
func NewController(ctx context.Context, wg *sync.WaitGroup, schedule string, generator Generator, writer ForecastWriter, logger *zap.SugaredLogger) (*Controller, error) {
	if generator == nil {
		return nil, fmt.Errorf("a forecast pipeline is required for the refresher")
	}
	if writer == nil {
		return nil, fmt.Errorf("a forecast store is required for the refresher")
	}

	if schedule == "" {
		logger.Infof("forecast.refresh-cron not provided; defaulting to %q", DefaultSchedule)
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	return &Controller{
		ctx:       ctx,
		wg:        wg,
		schedule:  schedule,
		generator: generator,
		writer:    writer,
		cron:      cron.New(),
		logger:    logger,
	}, nil
}

// StartController runs one refresh immediately, then hands off to cron.
func (c *Controller) StartController() error {
	log.Info("Starting forecast refresher controller...")

	if _, err := c.cron.AddFunc(c.schedule, func() { c.refresh(c.ctx) }); err != nil {
		return fmt.Errorf("scheduling forecast refresh: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.refresh(c.ctx)
		c.cron.Start()

		<-c.ctx.Done()
		log.Info("Shutting down the forecast refresher...")
		stopCtx := c.cron.Stop()
		<-stopCtx.Done()
	}()

	return nil
}

// refresh regenerates the forecast and persists it. Only full pipeline runs
// are worth scoring later, so degraded and fallback results are not saved.
func (c *Controller) refresh(ctx context.Context) {
	c.logger.Info("refreshing forecast...")
	result := c.generator.Generate(ctx)

	if result.Status != forecast.StatusSuccess {
		c.logger.Warnf("skipping persistence of %s forecast run", result.Status)
		return
	}

	if err := c.writer.SaveForecast(ctx, result); err != nil {
		c.logger.Errorf("error persisting forecast run: %v", err)
		return
	}
	c.logger.Infof("persisted forecast run (forecast=%.2f mape=%.2f)", result.Forecast, result.MAPE)
}
