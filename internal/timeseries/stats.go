package timeseries

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// quantile computes the p-quantile of vals with linear interpolation,
// matching the convention the cleaning thresholds were tuned against.
func quantile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// median is the 0.5 quantile.
func median(vals []float64) float64 {
	return quantile(vals, 0.5)
}
