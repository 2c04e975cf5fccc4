package database

import (
	"testing"
	"time"

	"github.com/pythia-analytics/pythia-forecast/internal/forecast"
)

func TestPointsCodec(t *testing.T) {
	points := []forecast.Point{
		{Date: time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC), Value: 104.2, Lower: 90.1, Upper: 118.3},
		{Date: time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC), Value: 107.9, Lower: 93.5, Upper: 121.0},
	}

	raw, err := encodePointsJSON(points)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, err := decodePointsJSON(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got) != len(points) {
		t.Fatalf("expected %d points, got %d", len(points), len(got))
	}
	for i := range got {
		if !got[i].Date.Equal(points[i].Date) || got[i] != points[i] {
			t.Errorf("point %d: expected %+v, got %+v", i, points[i], got[i])
		}
	}
}

func TestDecodePointsJSONRejectsBadDate(t *testing.T) {
	if _, err := decodePointsJSON([]byte(`[{"ds":"June 2nd","yhat":1}]`)); err == nil {
		t.Error("expected an error for an unparseable date")
	}
}

func TestDecodePointsJSONRejectsGarbage(t *testing.T) {
	if _, err := decodePointsJSON([]byte(`{not json`)); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}
