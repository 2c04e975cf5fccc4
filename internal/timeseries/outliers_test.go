package timeseries

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func constantSeries(days int, value float64) Series {
	start := day(2026, 1, 1)
	s := make(Series, days)
	for i := range s {
		s[i] = Sample{Date: start.AddDate(0, 0, i), Value: value}
	}
	return s
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestScanContamination(t *testing.T) {
	tests := []struct {
		name         string
		series       Series
		expectedDays int
		expectedDrop int
	}{
		{
			name:         "clean series untouched",
			series:       constantSeries(40, 100),
			expectedDays: 40,
			expectedDrop: 0,
		},
		{
			name: "contaminated tail truncated",
			series: func() Series {
				s := constantSeries(43, 100)
				for i := 40; i < 43; i++ {
					s[i].Value = 1500 // 15x baseline
				}
				return s
			}(),
			expectedDays: 40,
			expectedDrop: 3,
		},
		{
			name: "partial day undercount truncated",
			series: func() Series {
				s := constantSeries(40, 100)
				s[39].Value = 5 // 0.05x baseline
				return s
			}(),
			expectedDays: 39,
			expectedDrop: 1,
		},
		{
			name: "walk stops at first normal day",
			series: func() Series {
				s := constantSeries(43, 100)
				s[40].Value = 2000 // shielded by the normal days after it
				s[42].Value = 2000
				return s
			}(),
			expectedDays: 42,
			expectedDrop: 1,
		},
		{
			name:         "short series skipped entirely",
			series:       constantSeries(7, 100),
			expectedDays: 7,
			expectedDrop: 0,
		},
		{
			name:         "zero baseline skipped",
			series:       constantSeries(40, 0),
			expectedDays: 40,
			expectedDrop: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := ScanContamination(tt.series, testLogger())
			if len(got) != tt.expectedDays {
				t.Errorf("expected %d days, got %d", tt.expectedDays, len(got))
			}
			if dropped != tt.expectedDrop {
				t.Errorf("expected %d dropped, got %d", tt.expectedDrop, dropped)
			}
		})
	}
}

func TestScanContaminationPreservesInput(t *testing.T) {
	s := constantSeries(43, 100)
	for i := 40; i < 43; i++ {
		s[i].Value = 1500
	}
	ScanContamination(s, testLogger())
	if len(s) != 43 || s[42].Value != 1500 {
		t.Error("input series was mutated")
	}
}

func TestCapDistributionExtremeSpread(t *testing.T) {
	// 37 normal days plus 3 massive spikes pushes q95 far beyond the
	// median, which selects the conservative min(5*p90, p98) cap.
	s := constantSeries(40, 100)
	for _, i := range []int{10, 20, 30} {
		s[i].Value = 5000
	}

	got, capped := CapDistribution(s, testLogger())
	if capped != 3 {
		t.Fatalf("expected 3 capped values, got %d", capped)
	}
	// p90 of the sorted values is 100, so the cap is 5*p90 = 500.
	for _, i := range []int{10, 20, 30} {
		if got[i].Value != 500 {
			t.Errorf("day %d: expected spike capped at 500, got %v", i, got[i].Value)
		}
	}
	if got[0].Value != 100 {
		t.Errorf("normal day altered: got %v", got[0].Value)
	}
}

func TestCapDistributionIQRBranch(t *testing.T) {
	// Mild variation stays under the extreme-spread ratio, so only the
	// loose IQR ceiling applies and organic values survive.
	s := constantSeries(30, 100)
	for i := range s {
		s[i].Value = 90 + float64(i%3)*10
	}

	got, capped := CapDistribution(s, testLogger())
	if capped != 0 {
		t.Errorf("expected no capping on mild variation, got %d", capped)
	}
	for i := range got {
		if got[i].Value != s[i].Value {
			t.Errorf("day %d changed from %v to %v", i, s[i].Value, got[i].Value)
		}
	}
}

func TestCapDistributionEmptySeries(t *testing.T) {
	got, capped := CapDistribution(Series{}, testLogger())
	if len(got) != 0 || capped != 0 {
		t.Errorf("expected empty passthrough, got %d days %d capped", len(got), capped)
	}
}

func TestCapSecondary(t *testing.T) {
	t.Run("short series gated", func(t *testing.T) {
		s := constantSeries(30, 100)
		s[10].Value = 10000
		got, capped := CapSecondary(s, testLogger())
		if capped != 0 {
			t.Errorf("expected gate at %d days, got %d capped", SecondaryMinDays, capped)
		}
		if got[10].Value != 10000 {
			t.Errorf("gated series was altered: %v", got[10].Value)
		}
	})

	t.Run("outlier clamped below median multiple", func(t *testing.T) {
		s := constantSeries(40, 100)
		for i := range s {
			s[i].Value = 80 + float64(i%5)*10 // 80..120
		}
		s[15].Value = 900

		got, capped := CapSecondary(s, testLogger())
		if capped == 0 {
			t.Fatal("expected the outlier to be capped")
		}
		med := median(s.Values())
		if got[15].Value > med*SecondaryMedianMultiplier {
			t.Errorf("capped value %v exceeds %v", got[15].Value, med*SecondaryMedianMultiplier)
		}
	})

	t.Run("zero median skipped", func(t *testing.T) {
		s := constantSeries(40, 0)
		s[5].Value = 50
		_, capped := CapSecondary(s, testLogger())
		if capped != 0 {
			t.Errorf("expected no capping with zero median, got %d", capped)
		}
	})
}

func TestClampFloorsNegatives(t *testing.T) {
	s := Series{
		{Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Value: -5},
		{Date: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Value: 10},
	}
	got, _ := clampSeries(s, 100)
	if got[0].Value != 0 {
		t.Errorf("expected negative value floored to 0, got %v", got[0].Value)
	}
}
