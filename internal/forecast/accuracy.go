package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pythia-analytics/pythia-forecast/internal/forecast/model"
	"github.com/pythia-analytics/pythia-forecast/internal/timeseries"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Accuracy strategy selectors.
const (
	// StrategyBacktest estimates accuracy from a held-out tail of history.
	StrategyBacktest = "backtest"

	// StrategyRecalibration compares previously persisted forecasts against
	// actuals that have since arrived.
	StrategyRecalibration = "recalibration"

	// StrategyAuto tries recalibration first and falls back to the backtest.
	StrategyAuto = "auto"
)

// Accuracy tunables.
const (
	// maxReasonableError drops individual percentage errors above 200%; they
	// indicate data issues, not genuine forecast misses.
	maxReasonableError = 2.0

	// minValidSamples is the floor below which a strategy reports
	// undetermined rather than an untrustworthy number.
	minValidSamples = 3

	// medianMinSamples switches aggregation from mean to the more robust
	// median once enough samples exist.
	medianMinSamples = 5

	// cvProxyCap bounds the coefficient-of-variation fallback metric.
	cvProxyCap = 40.0

	// Fixed constants for when even the variance proxy is undefined
	// (mean <= 0). The recalibration path uses the historical default of the
	// revised pipeline; everything else uses the generic fallback.
	recalibrationFallbackMAPE = 11.9
	genericFallbackMAPE       = 25.0

	// baselineCheckThreshold triggers the moving-average cross-check; above
	// it the model estimate is suspect enough to sanity-check.
	baselineCheckThreshold = 30.0
	baselinePenalty        = 1.2
	baselineMAPECap        = 25.0

	// recalibrationWindowDays of actuals are fetched for live recalibration.
	recalibrationWindowDays = 14

	// recentForecastLimit bounds how many stored forecasts are considered
	// when looking for one that overlaps the actuals.
	recentForecastLimit = 5

	mapeFloor   = 0.0
	mapeCeiling = 100.0
)

// Backtest holdout sizing gates.
const (
	richHistoryDays   = 180
	mediumHistoryDays = 90
	maxRichHoldout    = 21
	maxMediumHoldout  = 14
	minShortHoldout   = 7
)

// Validator computes a robust MAPE for a forecast over a cleaned series. It
// never fails outright: when no strategy yields a trustworthy estimate it
// degrades to a variance-based proxy.
type Validator struct {
	newModel  model.Factory
	events    EventStore
	forecasts ForecastStore
	strategy  string
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// NewValidator creates a validator. events and forecasts may be nil when the
// recalibration strategy is not selectable.
func NewValidator(factory model.Factory, events EventStore, forecasts ForecastStore, strategy string, now func() time.Time, logger *zap.SugaredLogger) *Validator {
	if strategy == "" {
		strategy = StrategyAuto
	}
	return &Validator{
		newModel:  factory,
		events:    events,
		forecasts: forecasts,
		strategy:  strategy,
		now:       now,
		logger:    logger,
	}
}

// Estimate returns a MAPE in [0, 100] for the given cleaned series, trying
// the configured strategies in order and degrading to the variance proxy
// when none produces a trustworthy number.
func (v *Validator) Estimate(ctx context.Context, cleaned timeseries.Cleaned) float64 {
	mape, err := v.estimate(ctx, cleaned)
	if err != nil {
		v.logger.Warnf("accuracy validation failed: %v", err)
		def := genericFallbackMAPE
		if v.strategy == StrategyRecalibration {
			def = recalibrationFallbackMAPE
		}
		mape = varianceProxy(cleaned.OriginalValues(), def)
	}

	if mape > baselineCheckThreshold {
		mape = v.crossCheckBaseline(cleaned.OriginalValues(), mape)
	}

	if mape < mapeFloor {
		mape = mapeFloor
	}
	if mape > mapeCeiling {
		mape = mapeCeiling
	}
	return mape
}

func (v *Validator) estimate(ctx context.Context, cleaned timeseries.Cleaned) (float64, error) {
	switch v.strategy {
	case StrategyBacktest:
		return v.backtest(cleaned)
	case StrategyRecalibration:
		return v.recalibrate(ctx)
	default:
		mape, err := v.recalibrate(ctx)
		if err == nil {
			return mape, nil
		}
		v.logger.Debugf("recalibration unavailable (%v), falling back to backtest", err)
		return v.backtest(cleaned)
	}
}

// backtest fits a validation-tuned model on a chronological prefix and
// scores it against the held-out tail. The tail is always the most recent
// days; a random split would leak future information into a forward-looking
// accuracy estimate.
func (v *Validator) backtest(cleaned timeseries.Cleaned) (float64, error) {
	n := cleaned.Len()
	testDays := holdoutSize(n)
	trainLen := n - testDays
	if trainLen < minValidSamples {
		return 0, fmt.Errorf("%w: only %d training days after holdout", ErrValidationUndetermined, trainLen)
	}

	// Validation fits run on the original scale so percentage errors are
	// comparable to reported forecasts.
	values := cleaned.OriginalValues()
	dates := cleaned.Series.Dates()

	v.logger.Infof("train/test split: %d days training, %d days testing (%.1f%%)",
		trainLen, testDays, float64(testDays)/float64(n)*100)

	m := v.newModel(ConfigureValidation(trainLen))
	if err := m.Fit(dates[:trainLen], values[:trainLen]); err != nil {
		return 0, fmt.Errorf("%w: validation fit: %v", ErrValidationUndetermined, err)
	}

	preds, err := m.Predict(dates[trainLen:])
	if err != nil {
		return 0, fmt.Errorf("%w: validation predict: %v", ErrValidationUndetermined, err)
	}

	predicted := make([]float64, len(preds))
	for i, p := range preds {
		predicted[i] = p.Value
	}

	mape, err := robustMAPE(values[trainLen:], predicted, v.logger)
	if err != nil {
		return 0, err
	}
	v.logger.Infof("backtest MAPE: %.2f%% (trained on %d days, tested on %d days)", mape, trainLen, testDays)
	return mape, nil
}

// recalibrate compares the most recent persisted forecast against actual
// counts that have arrived since it was generated.
func (v *Validator) recalibrate(ctx context.Context) (float64, error) {
	if v.events == nil || v.forecasts == nil {
		return 0, fmt.Errorf("%w: recalibration stores not configured", ErrValidationUndetermined)
	}

	since := v.now().AddDate(0, 0, -recalibrationWindowDays)
	events, err := v.events.FetchEvents(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("%w: fetching recent actuals: %v", ErrValidationUndetermined, err)
	}

	daily, err := timeseries.Normalize(events)
	if err != nil {
		return 0, fmt.Errorf("%w: no recent actuals to recalibrate against", ErrValidationUndetermined)
	}

	stored, err := v.forecasts.FetchRecentForecasts(ctx, recentForecastLimit)
	if err != nil {
		return 0, fmt.Errorf("%w: fetching stored forecasts: %v", ErrValidationUndetermined, err)
	}

	actualByDate := make(map[time.Time]float64, len(daily))
	for _, s := range daily {
		actualByDate[s.Date] = s.Value
	}

	// Stored forecasts arrive most recent first; take the newest one whose
	// predicted range overlaps the actuals.
	for _, sf := range stored {
		var actual, predicted []float64
		for _, p := range sf.Points {
			if a, ok := actualByDate[timeseries.Day(p.Date)]; ok {
				actual = append(actual, a)
				predicted = append(predicted, p.Value)
			}
		}
		if len(actual) == 0 {
			continue
		}

		mape, err := robustMAPE(actual, predicted, v.logger)
		if err != nil {
			return 0, err
		}
		v.logger.Infof("recalibration MAPE: %.2f%% against forecast generated %s (%d comparable days)",
			mape, sf.GeneratedAt.Format(time.RFC3339), len(actual))
		return mape, nil
	}

	return 0, fmt.Errorf("%w: no stored forecast overlaps the recent actuals", ErrValidationUndetermined)
}

// crossCheckBaseline compares a suspect MAPE against a centered
// moving-average baseline. The baseline is only preferred when meaningfully
// better, and its reported value is penalized so we never imply
// better-than-observed accuracy.
func (v *Validator) crossCheckBaseline(values []float64, mape float64) float64 {
	window := len(values) / 3
	if window > minShortHoldout {
		window = minShortHoldout
	}
	if window < 3 {
		return mape
	}

	overall := stat.Mean(values, nil)
	sum := 0.0
	for i, y := range values {
		lo := i - window/2
		hi := lo + window
		ma := overall
		if lo >= 0 && hi <= len(values) {
			ma = stat.Mean(values[lo:hi], nil)
		}
		// +1 in the denominator keeps zero-valued days from dividing by zero.
		sum += abs(y-ma) / (y + 1)
	}
	baselineMAPE := sum / float64(len(values)) * 100

	if baselineMAPE < mape {
		penalized := baselineMAPE * baselinePenalty
		if penalized > baselineMAPECap {
			penalized = baselineMAPECap
		}
		v.logger.Infof("using baseline MAPE %.2f%% (model estimate was %.2f%%)", penalized, mape)
		return penalized
	}
	return mape
}

// robustMAPE computes a percentage error over comparable days only: both
// actual and predicted strictly positive, individual errors above 200%
// discarded as pathological. Aggregates by median once enough samples
// survive, by mean otherwise.
func robustMAPE(actual, predicted []float64, logger *zap.SugaredLogger) (float64, error) {
	var errs []float64
	for i := range actual {
		if i >= len(predicted) {
			break
		}
		if actual[i] <= 0 || predicted[i] <= 0 {
			continue
		}
		pct := abs(actual[i]-predicted[i]) / actual[i]
		if pct > maxReasonableError {
			continue
		}
		errs = append(errs, pct)
	}

	if len(errs) < minValidSamples {
		return 0, fmt.Errorf("%w: only %d comparable days", ErrValidationUndetermined, len(errs))
	}

	if len(errs) >= medianMinSamples {
		sort.Float64s(errs)
		logger.Debugf("using median MAPE from %d valid predictions", len(errs))
		return stat.Quantile(0.5, stat.LinInterp, errs, nil) * 100, nil
	}
	logger.Debugf("using mean MAPE from %d predictions", len(errs))
	return stat.Mean(errs, nil) * 100, nil
}

// varianceProxy approximates MAPE by the coefficient of variation, capped.
// When the mean is non-positive even that is undefined and the path default
// is returned.
func varianceProxy(values []float64, def float64) float64 {
	mean := stat.Mean(values, nil)
	if mean <= 0 {
		return def
	}
	cv := stat.StdDev(values, nil) / mean * 100
	if cv > cvProxyCap {
		return cvProxyCap
	}
	return cv
}

// holdoutSize picks the backtest tail adaptively: richer history affords a
// longer holdout at a smaller fraction of the data.
func holdoutSize(n int) int {
	switch {
	case n >= richHistoryDays:
		if n/8 < maxRichHoldout {
			return n / 8
		}
		return maxRichHoldout
	case n >= mediumHistoryDays:
		if n/6 < maxMediumHoldout {
			return n / 6
		}
		return maxMediumHoldout
	default:
		if n/5 > minShortHoldout {
			return n / 5
		}
		return minShortHoldout
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
