package timeseries

import "math"

// LogTransformThreshold is the fixed value ceiling above which the series is
// log1p-compressed before fitting. Deliberately not adaptive.
const LogTransformThreshold = 1000.0

// Cleaned is a daily series ready for model fitting. When the log transform
// was applied the sample values are log1p of the originals and the
// pre-transform values are retained for accuracy recovery.
type Cleaned struct {
	Series         Series
	LogTransformed bool

	original []float64
}

// ApplyTransform decides whether the series needs log1p scale compression
// and returns the fit-ready series. The input is never mutated.
func ApplyTransform(s Series) Cleaned {
	maxVal := 0.0
	for _, sample := range s {
		if sample.Value > maxVal {
			maxVal = sample.Value
		}
	}

	if maxVal <= LogTransformThreshold {
		return Cleaned{Series: s.Clone()}
	}

	out := s.Clone()
	orig := make([]float64, len(s))
	for i := range out {
		orig[i] = out[i].Value
		out[i].Value = math.Log1p(out[i].Value)
	}

	return Cleaned{Series: out, LogTransformed: true, original: orig}
}

// Len returns the number of days in the cleaned series.
func (c Cleaned) Len() int {
	return len(c.Series)
}

// OriginalValues returns the pre-transform values in day order. For an
// untransformed series these are the series values themselves.
func (c Cleaned) OriginalValues() []float64 {
	if !c.LogTransformed {
		return c.Series.Values()
	}
	out := make([]float64, len(c.original))
	copy(out, c.original)
	return out
}

// Invert undoes the forward transform for a single model-space value.
func (c Cleaned) Invert(v float64) float64 {
	if !c.LogTransformed {
		return v
	}
	return math.Expm1(v)
}
