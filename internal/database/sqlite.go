package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pythia-analytics/pythia-forecast/internal/forecast"
	"github.com/pythia-analytics/pythia-forecast/internal/timeseries"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

// SQLiteStore implements the event and forecast stores on a single local
// file. Intended for development and small installs where running Postgres
// is not worth it. Future points are stored as a msgpack blob.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	timestamp TIMESTAMP NOT NULL,
	count     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);

CREATE TABLE IF NOT EXISTS forecast_runs (
	id           TEXT PRIMARY KEY,
	generated_at TIMESTAMP NOT NULL,
	forecast     REAL NOT NULL,
	mape         REAL NOT NULL,
	data_points  INTEGER NOT NULL,
	status       TEXT NOT NULL,
	points       BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forecast_runs_generated_at ON forecast_runs(generated_at);
`

// NewSQLiteStore opens (and if needed initializes) the store file.
func NewSQLiteStore(path string, sugar *zap.SugaredLogger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store %s: %w", path, err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing sqlite schema: %w", err)
	}

	sugar.Infof("sqlite store ready at %s", path)
	return &SQLiteStore{db: db, logger: sugar}, nil
}

// FetchEvents returns raw event rows ordered by timestamp ascending. A zero
// since fetches the full history.
func (s *SQLiteStore) FetchEvents(ctx context.Context, since time.Time) ([]timeseries.RawEvent, error) {
	query := `SELECT timestamp, count FROM events ORDER BY timestamp ASC`
	args := []interface{}{}
	if !since.IsZero() {
		query = `SELECT timestamp, count FROM events WHERE timestamp >= ? ORDER BY timestamp ASC`
		args = append(args, since)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []timeseries.RawEvent
	for rows.Next() {
		var ev timeseries.RawEvent
		if err := rows.Scan(&ev.Timestamp, &ev.Count); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}

	return events, nil
}

// FetchRecentForecasts returns up to limit persisted forecasts, most recent
// first.
func (s *SQLiteStore) FetchRecentForecasts(ctx context.Context, limit int) ([]forecast.StoredForecast, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, generated_at, points FROM forecast_runs ORDER BY generated_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying forecast_runs: %w", err)
	}
	defer rows.Close()

	var out []forecast.StoredForecast
	for rows.Next() {
		var id string
		var generatedAt time.Time
		var blob []byte
		if err := rows.Scan(&id, &generatedAt, &blob); err != nil {
			return nil, fmt.Errorf("scanning forecast run: %w", err)
		}

		var stored []storedPoint
		if err := msgpack.Unmarshal(blob, &stored); err != nil {
			s.logger.Warnf("skipping forecast run %s: %v", id, err)
			continue
		}
		points, err := fromStoredPoints(stored)
		if err != nil {
			s.logger.Warnf("skipping forecast run %s: %v", id, err)
			continue
		}

		out = append(out, forecast.StoredForecast{GeneratedAt: generatedAt, Points: points})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating forecast runs: %w", err)
	}

	return out, nil
}

// SaveForecast persists a generated forecast for later recalibration.
func (s *SQLiteStore) SaveForecast(ctx context.Context, result *forecast.Result) error {
	blob, err := msgpack.Marshal(toStoredPoints(result.Future))
	if err != nil {
		return fmt.Errorf("encoding forecast points: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO forecast_runs (id, generated_at, forecast, mape, data_points, status, points)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, result.GeneratedAt, result.Forecast, result.MAPE, result.DataPoints, result.Status, blob,
	)
	if err != nil {
		return fmt.Errorf("saving forecast run: %w", err)
	}

	s.logger.Debugf("saved forecast run %s (%d future days)", id, len(result.Future))
	return nil
}

// Close closes the store file.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
