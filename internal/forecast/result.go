package forecast

import (
	"context"
	"time"

	"github.com/pythia-analytics/pythia-forecast/internal/timeseries"
)

// Result statuses, reported in the response metadata.
const (
	// StatusSuccess: the full pipeline ran and produced a model forecast.
	StatusSuccess = "success"

	// StatusDegraded: history was too short; the forecast is the mean of the
	// available data with a fixed pessimistic MAPE.
	StatusDegraded = "degraded"

	// StatusFallback: the model invocation failed; the result carries fixed
	// fallback numbers rather than a raw internal failure.
	StatusFallback = "fallback_used"

	// StatusNoData: the event store holds nothing at all. No forecast is
	// fabricated for this case.
	StatusNoData = "no_data"
)

// Tuning classifications. Informational only, never used for control flow.
const (
	TuningOptimized = "optimized"
	TuningDefault   = "default"
	TuningFallback  = "fallback"
)

// Algorithm names the fitting capability in response metadata.
const Algorithm = "harmonic"

// Point is a single forecasted future day.
type Point struct {
	Date  time.Time
	Value float64
	Lower float64
	Upper float64
}

// Result is the externally visible forecast artifact. Immutable once
// returned.
type Result struct {
	Forecast    float64
	MAPE        float64
	Future      []Point
	GeneratedAt time.Time
	DataPoints  int
	Status      string
	Tuning      string
}

// EventStore is the read-only query surface of the external event store.
// Events come back ordered by timestamp ascending. A zero since fetches
// everything.
type EventStore interface {
	FetchEvents(ctx context.Context, since time.Time) ([]timeseries.RawEvent, error)
}

// StoredForecast is a previously persisted forecast, as needed for live
// recalibration.
type StoredForecast struct {
	GeneratedAt time.Time
	Points      []Point
}

// ForecastStore reads previously persisted forecasts, most recent first.
// This core only reads prior results; the refresher controller owns the
// write path.
type ForecastStore interface {
	FetchRecentForecasts(ctx context.Context, limit int) ([]StoredForecast, error)
}
