package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/pythia-analytics/pythia-forecast/internal/forecast"
	"github.com/pythia-analytics/pythia-forecast/internal/timeseries"
)

const dateLayout = "2006-01-02"

// ForecastRun persists one generated forecast. The future points ride along
// as a JSONB blob rather than one row per day; they are only ever read back
// whole, for live recalibration.
type ForecastRun struct {
	ID          string    `gorm:"primaryKey"`
	GeneratedAt time.Time `gorm:"index;not null"`
	Forecast    float64
	MAPE        float64 `gorm:"column:mape"`
	DataPoints  int
	Status      string
	Points      pgtype.JSONB `gorm:"type:jsonb;default:'[]';not null"`
}

// TableName overrides the GORM default
func (ForecastRun) TableName() string {
	return "forecast_runs"
}

// eventRow maps the external events table. Read-only from this service.
type eventRow struct {
	Timestamp time.Time
	Count     int64
}

func (r eventRow) toRawEvent() timeseries.RawEvent {
	return timeseries.RawEvent{Timestamp: r.Timestamp, Count: r.Count}
}

// storedPoint is the serialized form of one future day, shared by the JSONB
// and msgpack encodings.
type storedPoint struct {
	Date  string  `json:"ds" msgpack:"ds"`
	Value float64 `json:"yhat" msgpack:"yhat"`
	Lower float64 `json:"yhat_lower" msgpack:"yhat_lower"`
	Upper float64 `json:"yhat_upper" msgpack:"yhat_upper"`
}

func toStoredPoints(points []forecast.Point) []storedPoint {
	out := make([]storedPoint, len(points))
	for i, p := range points {
		out[i] = storedPoint{
			Date:  p.Date.Format(dateLayout),
			Value: p.Value,
			Lower: p.Lower,
			Upper: p.Upper,
		}
	}
	return out
}

func fromStoredPoints(stored []storedPoint) ([]forecast.Point, error) {
	out := make([]forecast.Point, len(stored))
	for i, sp := range stored {
		d, err := time.Parse(dateLayout, sp.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing stored forecast date %q: %w", sp.Date, err)
		}
		out[i] = forecast.Point{Date: d, Value: sp.Value, Lower: sp.Lower, Upper: sp.Upper}
	}
	return out, nil
}

func encodePointsJSON(points []forecast.Point) ([]byte, error) {
	return json.Marshal(toStoredPoints(points))
}

func decodePointsJSON(raw []byte) ([]forecast.Point, error) {
	var stored []storedPoint
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decoding stored forecast points: %w", err)
	}
	return fromStoredPoints(stored)
}
