package model

import (
	"math"
	"testing"
	"time"
)

func dailyDates(start time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

var testConfig = Config{
	WeeklySeasonality:     true,
	ChangepointPriorScale: 0.08,
	SeasonalityPriorScale: 15.0,
	IntervalWidth:         0.90,
}

func TestHarmonicConstantSeries(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := dailyDates(start, 60)
	values := make([]float64, 60)
	for i := range values {
		values[i] = 100
	}

	m := NewHarmonic(testConfig)
	if err := m.Fit(dates, values); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	future := dailyDates(start.AddDate(0, 0, 60), 14)
	preds, err := m.Predict(future)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(preds) != 14 {
		t.Fatalf("expected 14 predictions, got %d", len(preds))
	}

	for i, p := range preds {
		if math.Abs(p.Value-100) > 2.0 {
			t.Errorf("prediction %d: expected ~100, got %v", i, p.Value)
		}
		if p.Lower > p.Value || p.Upper < p.Value {
			t.Errorf("prediction %d: interval [%v, %v] does not bracket %v", i, p.Lower, p.Upper, p.Value)
		}
		if !p.Date.Equal(future[i]) {
			t.Errorf("prediction %d: expected date %v, got %v", i, future[i], p.Date)
		}
	}
}

func TestHarmonicRecoversWeeklyPattern(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // a Monday
	dates := dailyDates(start, 84)                       // 12 full weeks
	values := make([]float64, len(dates))
	for i := range values {
		// weekdays busy, weekends quiet
		if wd := dates[i].Weekday(); wd == time.Saturday || wd == time.Sunday {
			values[i] = 20
		} else {
			values[i] = 100
		}
	}

	m := NewHarmonic(testConfig)
	if err := m.Fit(dates, values); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	future := dailyDates(start.AddDate(0, 0, 84), 7)
	preds, err := m.Predict(future)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	var weekday, weekend float64
	var weekdayN, weekendN int
	for _, p := range preds {
		if wd := p.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend += p.Value
			weekendN++
		} else {
			weekday += p.Value
			weekdayN++
		}
	}
	weekday /= float64(weekdayN)
	weekend /= float64(weekendN)

	if weekday <= weekend+40 {
		t.Errorf("weekly pattern lost: weekday mean %v vs weekend mean %v", weekday, weekend)
	}
}

func TestHarmonicTrendExtrapolation(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := dailyDates(start, 90)
	values := make([]float64, len(dates))
	for i := range values {
		values[i] = 50 + float64(i) // steady growth of 1/day
	}

	m := NewHarmonic(testConfig)
	if err := m.Fit(dates, values); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	preds, err := m.Predict(dailyDates(start.AddDate(0, 0, 90), 7))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	last := values[len(values)-1]
	for i, p := range preds {
		if p.Value < last {
			t.Errorf("prediction %d: trend not extrapolated, %v < last observed %v", i, p.Value, last)
		}
	}
}

func TestHarmonicErrors(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("predict before fit", func(t *testing.T) {
		m := NewHarmonic(testConfig)
		if _, err := m.Predict(dailyDates(start, 3)); err == nil {
			t.Error("expected an error before Fit")
		}
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		m := NewHarmonic(testConfig)
		if err := m.Fit(dailyDates(start, 5), []float64{1, 2, 3}); err == nil {
			t.Error("expected an error for mismatched inputs")
		}
	})

	t.Run("too few points", func(t *testing.T) {
		m := NewHarmonic(testConfig)
		if err := m.Fit(dailyDates(start, 2), []float64{1, 2}); err == nil {
			t.Error("expected an error for a 2-point fit")
		}
	})
}

func TestHarmonicDeterministic(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := dailyDates(start, 45)
	values := make([]float64, len(dates))
	for i := range values {
		values[i] = 100 + 30*math.Sin(float64(i)*2*math.Pi/7)
	}
	future := dailyDates(start.AddDate(0, 0, 45), 5)

	run := func() []Prediction {
		m := NewHarmonic(testConfig)
		if err := m.Fit(dates, values); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		preds, err := m.Predict(future)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		return preds
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("prediction %d differs between identical fits: %v vs %v", i, a[i], b[i])
		}
	}
}
