// Package database implements the event and forecast stores on Postgres
// (via GORM) with an alternate single-file SQLite backend for small
// installs. The events table is external and read-only; forecast_runs is
// owned by this service.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/google/uuid"
	"github.com/pythia-analytics/pythia-forecast/internal/forecast"
	"github.com/pythia-analytics/pythia-forecast/internal/log"
	"github.com/pythia-analytics/pythia-forecast/internal/timeseries"
	"go.uber.org/zap"
)

// Client holds the connection to a Postgres database
type Client struct {
	DB     *gorm.DB // Exported so it can be accessed from other packages
	logger *zap.SugaredLogger
}

// NewClient connects to Postgres and ensures the forecast_runs table exists.
func NewClient(connectionString string, sugar *zap.SugaredLogger) (*Client, error) {
	db, err := CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	c := &Client{DB: db, logger: sugar}
	if err := c.DB.AutoMigrate(ForecastRun{}); err != nil {
		return nil, fmt.Errorf("migrating forecast_runs: %w", err)
	}

	return c, nil
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,
		},
	)

	log.Info("connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a Postgres connection:", err)
		return nil, err
	}

	return db, nil
}

// FetchEvents returns raw event rows ordered by timestamp ascending. A zero
// since fetches the full history.
func (c *Client) FetchEvents(ctx context.Context, since time.Time) ([]timeseries.RawEvent, error) {
	var rows []eventRow

	q := c.DB.WithContext(ctx).Table("events").Select("timestamp, count").Order("timestamp asc")
	if !since.IsZero() {
		q = q.Where("timestamp >= ?", since)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying events: %w", err)
	}

	events := make([]timeseries.RawEvent, len(rows))
	for i, r := range rows {
		events[i] = r.toRawEvent()
	}
	return events, nil
}

// FetchRecentForecasts returns up to limit persisted forecasts, most recent
// first.
func (c *Client) FetchRecentForecasts(ctx context.Context, limit int) ([]forecast.StoredForecast, error) {
	var runs []ForecastRun
	err := c.DB.WithContext(ctx).
		Order("generated_at desc").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("error querying forecast_runs: %w", err)
	}

	out := make([]forecast.StoredForecast, 0, len(runs))
	for _, run := range runs {
		points, err := decodePointsJSON(run.Points.Bytes)
		if err != nil {
			c.logger.Warnf("skipping forecast run %s: %v", run.ID, err)
			continue
		}
		out = append(out, forecast.StoredForecast{
			GeneratedAt: run.GeneratedAt,
			Points:      points,
		})
	}
	return out, nil
}

// SaveForecast persists a generated forecast for later recalibration.
func (c *Client) SaveForecast(ctx context.Context, result *forecast.Result) error {
	raw, err := encodePointsJSON(result.Future)
	if err != nil {
		return fmt.Errorf("encoding forecast points: %w", err)
	}

	run := ForecastRun{
		ID:          uuid.NewString(),
		GeneratedAt: result.GeneratedAt,
		Forecast:    result.Forecast,
		MAPE:        result.MAPE,
		DataPoints:  result.DataPoints,
		Status:      result.Status,
	}
	if err := run.Points.Set(raw); err != nil {
		return fmt.Errorf("setting forecast points blob: %w", err)
	}

	if err := c.DB.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("error saving forecast run: %w", err)
	}
	c.logger.Debugf("saved forecast run %s (%d future days)", run.ID, len(result.Future))
	return nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
