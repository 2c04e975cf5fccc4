package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	weeklyPeriodDays = 7.0
	yearlyPeriodDays = 365.25

	weeklyFourierOrder = 3
	yearlyFourierOrder = 10

	// maxChangepoints bounds the number of trend inflection knots. Knots are
	// spread over the first 80% of the history so the extrapolated trend is
	// anchored by recent data.
	maxChangepoints      = 10
	changepointTrainFrac = 0.8

	// basePenalty keeps the normal equations positive definite even for the
	// effectively unpenalized intercept and slope columns.
	basePenalty = 1e-8
)

var errNotFitted = errors.New("model: predict called before a successful fit")

// Harmonic fits a piecewise-linear trend plus Fourier seasonal harmonics by
// ridge least squares. The changepoint and seasonality prior scales map to
// inverse ridge penalties, so a larger prior scale lets the corresponding
// coefficients move further. Fitting is deterministic.
type Harmonic struct {
	cfg Config

	origin      time.Time
	changepoint []float64
	beta        *mat.VecDense
	sigma       float64
	fitted      bool
}

// NewHarmonic is the Factory for the default model implementation.
func NewHarmonic(cfg Config) Forecaster {
	return &Harmonic{cfg: cfg}
}

// Fit trains the model on an ordered daily series.
func (h *Harmonic) Fit(dates []time.Time, values []float64) error {
	if len(dates) != len(values) {
		return fmt.Errorf("model: %d dates but %d values", len(dates), len(values))
	}
	if len(dates) < 3 {
		return fmt.Errorf("model: need at least 3 points to fit, got %d", len(dates))
	}

	h.origin = dates[0]
	n := len(dates)

	ts := make([]float64, n)
	for i, d := range dates {
		ts[i] = d.Sub(h.origin).Hours() / 24
	}

	h.changepoint = changepointKnots(ts)

	cols := h.featureCount()
	X := mat.NewDense(n, cols, nil)
	for i, t := range ts {
		h.fillFeatures(X.RawRowView(i), t)
	}

	// Ridge normal equations: (X'X + D) beta = X'y with per-column penalties.
	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	penalties := h.penalties()
	sym := mat.NewSymDense(cols, nil)
	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			v := xtx.At(i, j)
			if i == j {
				v += penalties[i]
			}
			sym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return errors.New("model: normal equations are not positive definite")
	}

	y := mat.NewVecDense(n, values)
	var xty mat.VecDense
	xty.MulVec(X.T(), y)

	beta := mat.NewVecDense(cols, nil)
	if err := chol.SolveVecTo(beta, &xty); err != nil {
		return fmt.Errorf("model: solving normal equations: %w", err)
	}
	h.beta = beta

	residuals := make([]float64, n)
	row := make([]float64, cols)
	for i, t := range ts {
		h.fillFeatures(row, t)
		residuals[i] = values[i] - dot(row, beta)
	}
	h.sigma = stat.StdDev(residuals, nil)
	if math.IsNaN(h.sigma) {
		h.sigma = 0
	}

	h.fitted = true
	return nil
}

// Predict returns one prediction per requested date, in order.
func (h *Harmonic) Predict(dates []time.Time) ([]Prediction, error) {
	if !h.fitted {
		return nil, errNotFitted
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + h.cfg.IntervalWidth/2)
	margin := z * h.sigma

	out := make([]Prediction, len(dates))
	row := make([]float64, h.featureCount())
	for i, d := range dates {
		t := d.Sub(h.origin).Hours() / 24
		h.fillFeatures(row, t)
		v := dot(row, h.beta)
		out[i] = Prediction{
			Date:  d,
			Value: v,
			Lower: v - margin,
			Upper: v + margin,
		}
	}
	return out, nil
}

// featureCount is the design-matrix width for the current configuration.
func (h *Harmonic) featureCount() int {
	cols := 2 + len(h.changepoint) // intercept, slope, trend knots
	if h.cfg.WeeklySeasonality {
		cols += 2 * weeklyFourierOrder
	}
	if h.cfg.YearlySeasonality {
		cols += 2 * yearlyFourierOrder
	}
	for _, s := range h.cfg.ExtraSeasonalities {
		cols += 2 * s.FourierOrder
	}
	return cols
}

// fillFeatures writes the feature row for day offset t into dst.
func (h *Harmonic) fillFeatures(dst []float64, t float64) {
	dst[0] = 1
	dst[1] = t
	idx := 2
	for _, knot := range h.changepoint {
		if t > knot {
			dst[idx] = t - knot
		} else {
			dst[idx] = 0
		}
		idx++
	}
	if h.cfg.WeeklySeasonality {
		idx = fillHarmonics(dst, idx, t, weeklyPeriodDays, weeklyFourierOrder)
	}
	if h.cfg.YearlySeasonality {
		idx = fillHarmonics(dst, idx, t, yearlyPeriodDays, yearlyFourierOrder)
	}
	for _, s := range h.cfg.ExtraSeasonalities {
		idx = fillHarmonics(dst, idx, t, s.PeriodDays, s.FourierOrder)
	}
}

// penalties returns the per-column ridge penalty diagonal.
func (h *Harmonic) penalties() []float64 {
	out := make([]float64, h.featureCount())
	for i := range out {
		out[i] = basePenalty
	}

	trendPenalty := basePenalty
	if h.cfg.ChangepointPriorScale > 0 {
		trendPenalty = 1 / h.cfg.ChangepointPriorScale
	}
	for i := 0; i < len(h.changepoint); i++ {
		out[2+i] = trendPenalty
	}

	seasonalPenalty := basePenalty
	if h.cfg.SeasonalityPriorScale > 0 {
		seasonalPenalty = 1 / h.cfg.SeasonalityPriorScale
	}
	for i := 2 + len(h.changepoint); i < len(out); i++ {
		out[i] = seasonalPenalty
	}
	return out
}

// changepointKnots places trend knots at evenly spaced points over the first
// 80% of the training range.
func changepointKnots(ts []float64) []float64 {
	span := ts[len(ts)-1] * changepointTrainFrac
	count := maxChangepoints
	if perKnot := len(ts) / 3; perKnot < count {
		count = perKnot
	}
	if count < 1 || span <= 0 {
		return nil
	}

	knots := make([]float64, count)
	for i := range knots {
		knots[i] = span * float64(i+1) / float64(count+1)
	}
	return knots
}

func fillHarmonics(dst []float64, idx int, t, period float64, order int) int {
	for k := 1; k <= order; k++ {
		angle := 2 * math.Pi * float64(k) * t / period
		dst[idx] = math.Sin(angle)
		dst[idx+1] = math.Cos(angle)
		idx += 2
	}
	return idx
}

func dot(row []float64, v *mat.VecDense) float64 {
	sum := 0.0
	for i, x := range row {
		sum += x * v.AtVec(i)
	}
	return sum
}
