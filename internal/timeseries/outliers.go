package timeseries

import (
	"go.uber.org/zap"
)

// Tunables for the two outlier-suppression passes. These ratios are the
// load-bearing knobs of the cleaning pipeline; change with care.
const (
	// ContaminationHighRatio and ContaminationLowRatio bound the band of
	// plausible recent-day values relative to the historical baseline.
	// Outside the band a day is presumed test traffic or a partial-day
	// undercount.
	ContaminationHighRatio = 10.0
	ContaminationLowRatio  = 0.1

	// ContaminationMaxDays caps how many trailing days the scan inspects.
	ContaminationMaxDays = 7

	// BaselineExclusionDays are trimmed off the tail before computing the
	// historical baseline, so recent contamination can't skew it.
	BaselineExclusionDays = 7

	// ExtremeSpreadRatio is the q95/median ratio beyond which the spread is
	// treated as a data-quality artifact rather than organic variance.
	ExtremeSpreadRatio = 20.0

	// IQRUpperMultiplier is looser than the classic 1.5 rule. Marketing and
	// campaign spikes are legitimate in this domain and should survive.
	IQRUpperMultiplier = 2.0

	// SecondaryIQRMultiplier and SecondaryMedianMultiplier bound the
	// secondary cap used on paths that skip the ingestion scan.
	SecondaryIQRMultiplier    = 2.5
	SecondaryMedianMultiplier = 4.0

	// SecondaryMinDays gates the secondary cap; IQR estimates on short
	// series are too unstable to cap against.
	SecondaryMinDays = 30
)

// ScanContamination inspects the most recent days of the series for extreme
// spikes or drops relative to the historical baseline and truncates the
// contiguous contaminated tail. Contamination is assumed contiguous from
// "now" backward, never scattered: the walk stops at the first normal day.
// Returns the (possibly shorter) series and the number of days removed.
func ScanContamination(s Series, logger *zap.SugaredLogger) (Series, int) {
	if len(s) <= ContaminationMaxDays {
		return s, 0
	}

	vals := s.Values()
	var baseline float64
	if len(s) > 2*BaselineExclusionDays {
		baseline = median(vals[:len(vals)-BaselineExclusionDays])
	} else {
		baseline = median(vals)
	}
	if baseline <= 0 {
		return s, 0
	}

	daysToCheck := ContaminationMaxDays
	if len(s)/10 < daysToCheck {
		daysToCheck = len(s) / 10
	}

	contaminated := 0
	for i := 0; i < daysToCheck; i++ {
		v := s[len(s)-1-i].Value
		ratio := v / baseline
		if ratio > ContaminationHighRatio || ratio < ContaminationLowRatio {
			contaminated = i + 1
			logger.Infof("day -%d: value %.0f vs baseline %.0f (ratio %.1fx), marking contaminated",
				i+1, v, baseline, ratio)
		} else {
			break
		}
	}

	if contaminated == 0 {
		logger.Debugf("recent data clean: last %d days within normal range of baseline %.0f", daysToCheck, baseline)
		return s, 0
	}

	logger.Infof("excluding last %d days as contaminated (baseline %.0f)", contaminated, baseline)
	return s.Clone()[:len(s)-contaminated], contaminated
}

// CapDistribution applies the distribution-shape cap. When the 95th
// percentile dwarfs the median the spread is treated as a data-quality
// artifact and capped conservatively at min(5*p90, p98); otherwise a loose
// IQR ceiling is used so organic spikes survive. Values are clamped, never
// dropped, and the floor is always 0.
func CapDistribution(s Series, logger *zap.SugaredLogger) (Series, int) {
	if len(s) == 0 {
		return s, 0
	}

	vals := s.Values()
	med := median(vals)
	q95 := quantile(vals, 0.95)

	var upper float64
	if q95 > ExtremeSpreadRatio*med && med > 0 {
		p90 := quantile(vals, 0.90)
		p98 := quantile(vals, 0.98)
		upper = 5 * p90
		if p98 < upper {
			upper = p98
		}
		logger.Infof("extreme outliers detected: median=%.0f q95=%.0f (%.1fx), capping above %.0f",
			med, q95, q95/med, upper)
	} else {
		q1 := quantile(vals, 0.25)
		q3 := quantile(vals, 0.75)
		upper = q3 + IQRUpperMultiplier*(q3-q1)
	}

	return clampSeries(s, upper)
}

// CapSecondary applies an independent IQR/median cap on paths that skip the
// ingestion contamination scan. Only series longer than SecondaryMinDays are
// capped; short series make the IQR estimate unstable.
func CapSecondary(s Series, logger *zap.SugaredLogger) (Series, int) {
	if len(s) <= SecondaryMinDays {
		return s, 0
	}

	vals := s.Values()
	med := median(vals)
	if med <= 0 {
		return s, 0
	}

	q1 := quantile(vals, 0.25)
	q3 := quantile(vals, 0.75)
	iqrUpper := q3 + SecondaryIQRMultiplier*(q3-q1)
	medianUpper := med * SecondaryMedianMultiplier

	upper := medianUpper
	if iqrUpper > 0 && iqrUpper < medianUpper {
		upper = iqrUpper
	}

	capped, n := clampSeries(s, upper)
	if n > 0 {
		logger.Infof("secondary cap: clamped %d outliers above %.0f (median %.0f)", n, upper, med)
	}
	return capped, n
}

// clampSeries clamps every value into [0, upper], returning a fresh series
// and the number of values that exceeded the cap.
func clampSeries(s Series, upper float64) (Series, int) {
	out := s.Clone()
	capped := 0
	for i := range out {
		if out[i].Value > upper {
			out[i].Value = upper
			capped++
		}
		if out[i].Value < 0 {
			out[i].Value = 0
		}
	}
	return out, capped
}
