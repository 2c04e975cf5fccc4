// Package timeseries turns raw event rows into clean daily series suitable
// for model fitting. It covers normalization to a gap-free daily grid,
// two-tier outlier suppression, and the optional log1p scale transform.
package timeseries

import (
	"errors"
	"sort"
	"time"
)

// ErrNoEvents is returned when normalization is asked to build a series from
// zero events. Callers must treat this as "no forecast possible", not as a
// zero-valued forecast.
var ErrNoEvents = errors.New("timeseries: no events to normalize")

// RawEvent is a single timestamped event count as fetched from the event
// store. Immutable once fetched.
type RawEvent struct {
	Timestamp time.Time
	Count     int64
}

// Sample is one day of the daily series.
type Sample struct {
	Date  time.Time
	Value float64
}

// Series is an ordered, contiguous daily series. Dates are midnight UTC and
// strictly increasing with no gaps.
type Series []Sample

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Normalize aggregates raw events into a daily series covering every
// calendar day from the earliest to the latest event, inclusive. Events on
// the same day sum additively and days without events are filled with 0.
func Normalize(events []RawEvent) (Series, error) {
	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	totals := make(map[time.Time]float64, len(events))
	for _, ev := range events {
		totals[Day(ev.Timestamp)] += float64(ev.Count)
	}

	days := make([]time.Time, 0, len(totals))
	for d := range totals {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	first := days[0]
	last := days[len(days)-1]

	series := make(Series, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		series = append(series, Sample{Date: d, Value: totals[d]})
	}

	return series, nil
}

// Values returns a copy of the series values in day order.
func (s Series) Values() []float64 {
	vals := make([]float64, len(s))
	for i, sample := range s {
		vals[i] = sample.Value
	}
	return vals
}

// Dates returns a copy of the series dates in day order.
func (s Series) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, sample := range s {
		dates[i] = sample.Date
	}
	return dates
}

// Clone returns an independent copy of the series. Pipeline stages replace
// the series they hand downstream rather than mutating shared slices.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}
