package timeseries

import (
	"math"
	"testing"
)

func TestApplyTransform(t *testing.T) {
	t.Run("small values left alone", func(t *testing.T) {
		s := constantSeries(10, 500)
		c := ApplyTransform(s)
		if c.LogTransformed {
			t.Error("expected no transform below the threshold")
		}
		if c.Series[0].Value != 500 {
			t.Errorf("value changed: got %v", c.Series[0].Value)
		}
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		s := constantSeries(10, LogTransformThreshold)
		if c := ApplyTransform(s); c.LogTransformed {
			t.Error("max exactly at the threshold must not transform")
		}
	})

	t.Run("large values log compressed", func(t *testing.T) {
		s := constantSeries(10, 100)
		s[5].Value = 5000
		c := ApplyTransform(s)
		if !c.LogTransformed {
			t.Fatal("expected log transform above the threshold")
		}
		if math.Abs(c.Series[5].Value-math.Log1p(5000)) > 1e-9 {
			t.Errorf("expected log1p(5000), got %v", c.Series[5].Value)
		}
		// input untouched
		if s[5].Value != 5000 {
			t.Errorf("input series mutated: %v", s[5].Value)
		}
	})
}

func TestTransformRoundTrip(t *testing.T) {
	s := constantSeries(5, 0)
	values := []float64{0, 1, 999, 1500, 250000}
	for i, v := range values {
		s[i].Value = v
	}

	c := ApplyTransform(s)
	if !c.LogTransformed {
		t.Fatal("expected log transform")
	}

	orig := c.OriginalValues()
	for i, v := range values {
		if math.Abs(orig[i]-v) > 1e-9 {
			t.Errorf("OriginalValues[%d]: expected %v, got %v", i, v, orig[i])
		}
		inverted := c.Invert(c.Series[i].Value)
		if math.Abs(inverted-v) > 1e-6 {
			t.Errorf("round trip of %v came back as %v", v, inverted)
		}
	}
}

func TestInvertIdentityWithoutTransform(t *testing.T) {
	c := ApplyTransform(constantSeries(5, 100))
	if got := c.Invert(42.5); got != 42.5 {
		t.Errorf("expected identity inversion, got %v", got)
	}
}
