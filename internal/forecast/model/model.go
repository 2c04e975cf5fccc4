// Package model provides the trend+seasonality fitting capability used by
// the forecast engine. The engine only depends on the Forecaster contract;
// the default implementation fits a piecewise-linear trend plus Fourier
// seasonal harmonics by ridge-regularized least squares.
package model

import "time"

// Seasonality describes one periodic component the model may fit.
type Seasonality struct {
	Name         string
	PeriodDays   float64
	FourierOrder int
}

// Config holds the model hyperparameters. Derived once per fit and never
// mutated afterward.
type Config struct {
	WeeklySeasonality  bool
	YearlySeasonality  bool
	ExtraSeasonalities []Seasonality

	ChangepointPriorScale float64
	SeasonalityPriorScale float64
	IntervalWidth         float64
}

// Prediction is a single forecasted day. Lower <= Value <= Upper always
// holds on output.
type Prediction struct {
	Date  time.Time
	Value float64
	Lower float64
	Upper float64
}

// Forecaster is the external fit/predict contract. Implementations must be
// side-effect-free on shared data so concurrent fits stay independent.
type Forecaster interface {
	// Fit trains the model on an ordered daily series.
	Fit(dates []time.Time, values []float64) error

	// Predict returns one prediction per requested date, in order. Only
	// valid after a successful Fit.
	Predict(dates []time.Time) ([]Prediction, error)
}

// Factory builds a fresh Forecaster for the given hyperparameters. Each fit
// gets its own instance.
type Factory func(cfg Config) Forecaster
