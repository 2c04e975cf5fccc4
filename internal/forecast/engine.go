package forecast

import (
	"fmt"
	"time"

	"github.com/pythia-analytics/pythia-forecast/internal/forecast/model"
	"github.com/pythia-analytics/pythia-forecast/internal/timeseries"
	"go.uber.org/zap"
)

// MinHistoryDays is the minimum usable history for a model fit. Below it the
// engine refuses to fit and reports ErrInsufficientHistory.
const MinHistoryDays = 21

// ScarceDataMAPE is the fixed pessimistic accuracy reported with the
// degraded result.
const ScarceDataMAPE = 50.0

// Engine orchestrates a single forecast: cap outliers, decide on the log
// transform, fit the model, predict, and invert the transform. Each
// invocation is independent and side-effect-free on shared data, so
// concurrent forecasts may safely run redundant fits.
type Engine struct {
	newModel model.Factory
	now      func() time.Time
	logger   *zap.SugaredLogger
}

// NewEngine creates an engine. The clock is injected so tests can fix "now";
// the forecast horizon is always anchored to it, not to the last historical
// date.
func NewEngine(factory model.Factory, now func() time.Time, logger *zap.SugaredLogger) *Engine {
	return &Engine{newModel: factory, now: now, logger: logger}
}

// Forecast produces a horizon-day forecast from a normalized daily series.
// The distribution-shape cap and transform decision run here, after the
// caller's ingestion-time cleaning. The returned Cleaned series is what the
// model was fit on, for reuse by accuracy validation.
func (e *Engine) Forecast(series timeseries.Series, horizon int) (*Result, timeseries.Cleaned, error) {
	capped, _ := timeseries.CapDistribution(series, e.logger)
	cleaned := timeseries.ApplyTransform(capped)

	now := e.now()

	if cleaned.Len() < MinHistoryDays {
		e.logger.Warnf("insufficient data: only %d days available (need %d)", cleaned.Len(), MinHistoryDays)
		return nil, cleaned, fmt.Errorf("%w: %d of %d days", ErrInsufficientHistory, cleaned.Len(), MinHistoryDays)
	}

	e.logger.Infof("data cleaned: %d days, log_transform=%v", cleaned.Len(), cleaned.LogTransformed)

	cfg := Configure(cleaned.Len())
	m := e.newModel(cfg)
	if err := m.Fit(cleaned.Series.Dates(), cleaned.Series.Values()); err != nil {
		return nil, cleaned, fmt.Errorf("%w: %v", ErrModelFit, err)
	}

	futureDates := make([]time.Time, horizon)
	anchor := timeseries.Day(now)
	for i := range futureDates {
		futureDates[i] = anchor.AddDate(0, 0, i+1)
	}

	preds, err := m.Predict(futureDates)
	if err != nil {
		return nil, cleaned, fmt.Errorf("%w: %v", ErrModelFit, err)
	}
	if len(preds) != horizon {
		// Downstream consumers size arrays by the requested horizon; a short
		// prediction is a contract violation, not something to paper over.
		e.logger.Errorf("model returned %d predictions for a %d-day horizon", len(preds), horizon)
	}

	future := make([]Point, len(preds))
	sum := 0.0
	for i, p := range preds {
		pt := Point{
			Date:  p.Date,
			Value: cleaned.Invert(p.Value),
			Lower: cleaned.Invert(p.Lower),
			Upper: cleaned.Invert(p.Upper),
		}
		if pt.Lower > pt.Value {
			pt.Lower = pt.Value
		}
		if pt.Upper < pt.Value {
			pt.Upper = pt.Value
		}
		future[i] = pt
		sum += pt.Value
	}

	mean := 0.0
	if len(future) > 0 {
		mean = sum / float64(len(future))
	}

	return &Result{
		Forecast:    mean,
		Future:      future,
		GeneratedAt: now,
		DataPoints:  cleaned.Len(),
	}, cleaned, nil
}
