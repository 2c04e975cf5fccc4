package forecast

import (
	"context"
	"errors"
	"time"

	"github.com/pythia-analytics/pythia-forecast/internal/timeseries"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Fixed fallback payload for when the model invocation itself fails. The
// HTTP layer must never surface a raw internal failure as a 200 with
// nonsensical data.
const (
	FallbackForecast = 100.0
	FallbackMAPE     = 25.0
)

// OptimizedMAPEThreshold classifies tuning metadata on successful results.
const OptimizedMAPEThreshold = 20.0

// Pipeline wraps the whole forecast flow end to end and converts any
// insufficiency or failure into a degraded-but-valid result instead of a
// propagated error. It is the single point translating stage errors into a
// user-facing payload.
type Pipeline struct {
	events    EventStore
	engine    *Engine
	validator *Validator
	horizon   int
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// NewPipeline wires the pipeline. horizon is the number of future days
// requested from every forecast.
func NewPipeline(events EventStore, engine *Engine, validator *Validator, horizon int, now func() time.Time, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		events:    events,
		engine:    engine,
		validator: validator,
		horizon:   horizon,
		now:       now,
		logger:    logger,
	}
}

// Horizon returns the configured forecast horizon in days.
func (p *Pipeline) Horizon() int {
	return p.horizon
}

// Generate runs the full pipeline and always returns a structurally valid
// result. Policy, in priority order: no rows at all yields an explicit
// no-data result; under 21 usable days yields the scarce-data degraded
// result; a failed fit yields the fixed fallback; otherwise success.
func (p *Pipeline) Generate(ctx context.Context) *Result {
	events, err := p.events.FetchEvents(ctx, time.Time{})
	if err != nil {
		p.logger.Errorf("event store query failed: %v", err)
		return p.fallbackResult()
	}

	series, err := timeseries.Normalize(events)
	if err != nil {
		if errors.Is(err, timeseries.ErrNoEvents) {
			p.logger.Warn("no events found for forecasting")
			return p.noDataResult()
		}
		p.logger.Errorf("normalizing events: %v", err)
		return p.fallbackResult()
	}
	p.logger.Infof("daily aggregation: %d days from %d events", len(series), len(events))

	series, dropped := timeseries.ScanContamination(series, p.logger)
	if dropped > 0 {
		p.logger.Infof("training on %d clean days after removing contaminated tail", len(series))
	}
	series, _ = timeseries.CapSecondary(series, p.logger)

	result, cleaned, err := p.engine.Forecast(series, p.horizon)
	if err != nil {
		if errors.Is(err, ErrInsufficientHistory) {
			return p.scarceResult(cleaned)
		}
		p.logger.Errorf("forecast generation failed: %v", err)
		return p.fallbackResult()
	}

	result.MAPE = p.validator.Estimate(ctx, cleaned)
	result.Status = StatusSuccess
	if result.MAPE < OptimizedMAPEThreshold {
		result.Tuning = TuningOptimized
	} else {
		result.Tuning = TuningDefault
	}

	p.logger.Infof("forecast generated: %d days | MAPE: %.2f%%", len(result.Future), result.MAPE)
	return result
}

// scarceResult is the mean-of-history degraded result for too-short series.
// A best-effort number with an honest pessimistic MAPE beats an error here.
func (p *Pipeline) scarceResult(cleaned timeseries.Cleaned) *Result {
	mean := 0.0
	if vals := cleaned.OriginalValues(); len(vals) > 0 {
		mean = stat.Mean(vals, nil)
	}
	return &Result{
		Forecast:    mean,
		MAPE:        ScarceDataMAPE,
		Future:      []Point{},
		GeneratedAt: p.now(),
		DataPoints:  cleaned.Len(),
		Status:      StatusDegraded,
		Tuning:      TuningDefault,
	}
}

// noDataResult signals that no forecast is available at all. Nothing is
// fabricated for this case.
func (p *Pipeline) noDataResult() *Result {
	return &Result{
		Future:      []Point{},
		GeneratedAt: p.now(),
		Status:      StatusNoData,
		Tuning:      TuningFallback,
	}
}

// fallbackResult carries fixed constants in place of a failed computation.
func (p *Pipeline) fallbackResult() *Result {
	return &Result{
		Forecast:    FallbackForecast,
		MAPE:        FallbackMAPE,
		Future:      []Point{},
		GeneratedAt: p.now(),
		Status:      StatusFallback,
		Tuning:      TuningFallback,
	}
}
