package domain

import (
	"encoding/json"
	"iter"
	"slices"
	"strings"
)

// NullPounds is an optional weight in pounds, modelled on sql.NullFloat64.
// It encodes to JSON null when not Valid.
type NullPounds struct {
	Value float64
	Valid bool
}

// Pounds wraps v as a valid NullPounds.
func Pounds(v float64) NullPounds {
	return NullPounds{Value: v, Valid: true}
}

// MarshalJSON implements json.Marshaler.
func (n NullPounds) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullPounds) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullPounds{}
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// ChartPoint is one entry of the chart series with the trend at that point.
type ChartPoint struct {
	Date           string     `json:"date"`
	Weight         float64    `json:"weight"`
	RunningAverage NullPounds `json:"runningAverage"`
	Index          int        `json:"index"`
}

// SortEntries returns a copy of entries in ascending date order. ISO dates
// compare chronologically as strings.
func SortEntries(entries []WeightEntry) []WeightEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b WeightEntry) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

// RunningAverage is the simple moving average of the last window entries by
// date. It is null when fewer than window entries exist.
func RunningAverage(entries []WeightEntry, window int) NullPounds {
	if window < 1 || len(entries) < window {
		return NullPounds{}
	}
	return meanOfLast(SortEntries(entries), window)
}

// PartialAverage is the mean of every entry, used before a full window exists.
func PartialAverage(entries []WeightEntry) NullPounds {
	if len(entries) == 0 {
		return NullPounds{}
	}
	return meanOfLast(entries, len(entries))
}

// ChartSeries yields every entry in date order together with the trend over
// the prefix ending at it: the full-window average from the seventh entry on,
// the partial average before that. Each iteration recomputes from entries.
func ChartSeries(entries []WeightEntry) iter.Seq[ChartPoint] {
	return func(yield func(ChartPoint) bool) {
		sorted := SortEntries(entries)
		for i, e := range sorted {
			n := i + 1
			avg := meanOfLast(sorted[:n], min(n, AverageWindow))
			if !yield(ChartPoint{Date: e.Date, Weight: e.Weight, RunningAverage: avg, Index: i}) {
				return
			}
		}
	}
}

// meanOfLast averages the last n entries of an already sorted slice.
func meanOfLast(sorted []WeightEntry, n int) NullPounds {
	if n < 1 || n > len(sorted) {
		return NullPounds{}
	}
	var sum float64
	for _, e := range sorted[len(sorted)-n:] {
		sum += e.Weight
	}
	return Pounds(sum / float64(n))
}
