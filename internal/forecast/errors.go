package forecast

import "errors"

// Stage errors. Every stage converts its own external-call failures into one
// of these; the pipeline is the single place they become a user-facing
// degraded result. Raw store or model errors never cross the HTTP boundary.
var (
	// ErrInsufficientHistory: data exists but is too short for a meaningful
	// fit. Recoverable via the degraded mean-of-history result.
	ErrInsufficientHistory = errors.New("forecast: insufficient history")

	// ErrModelFit: the fitting capability failed or returned malformed
	// output. Recoverable via the fixed fallback result.
	ErrModelFit = errors.New("forecast: model fit failed")

	// ErrValidationUndetermined: an accuracy strategy could not produce a
	// trustworthy estimate. Not a hard error; the validator falls through to
	// the next strategy.
	ErrValidationUndetermined = errors.New("forecast: accuracy validation undetermined")
)
