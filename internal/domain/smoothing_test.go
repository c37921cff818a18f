package domain_test

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weightquest/internal/domain"
)

func week(weights ...float64) []domain.WeightEntry {
	out := make([]domain.WeightEntry, 0, len(weights))
	for i, w := range weights {
		out = append(out, domain.WeightEntry{Date: day(i), Weight: w})
	}
	return out
}

func day(i int) string {
	return "2026-03-" + twoDigits(i+1)
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

func TestRunningAverage(t *testing.T) {
	entries := week(200, 199, 198, 197, 196, 195, 194)

	got := domain.RunningAverage(entries, domain.AverageWindow)
	require.True(t, got.Valid)
	assert.Equal(t, 197.0, got.Value)

	// date order is restored before averaging
	shuffled := []domain.WeightEntry{entries[3], entries[6], entries[0], entries[5], entries[1], entries[4], entries[2]}
	got = domain.RunningAverage(shuffled, domain.AverageWindow)
	require.True(t, got.Valid)
	assert.Equal(t, 197.0, got.Value)

	assert.False(t, domain.RunningAverage(entries[:6], domain.AverageWindow).Valid)
	assert.False(t, domain.RunningAverage(entries, 0).Valid)
}

func TestRunningAverage_UsesMostRecentWindow(t *testing.T) {
	entries := week(300, 200, 199, 198, 197, 196, 195, 194)
	// the oldest reading sits outside the window once an eighth day arrives
	slices.Reverse(entries)

	got := domain.RunningAverage(entries, domain.AverageWindow)
	require.True(t, got.Valid)
	assert.InDelta(t, 197.0, got.Value, 1e-9)
}

func TestPartialAverage(t *testing.T) {
	assert.False(t, domain.PartialAverage(nil).Valid)

	got := domain.PartialAverage(week(200, 198, 196))
	require.True(t, got.Valid)
	assert.InDelta(t, 198.0, got.Value, 1e-9)
}

func TestChartSeries(t *testing.T) {
	entries := week(210, 208, 206, 204, 202, 200, 198, 196, 194)
	slices.Reverse(entries)

	points := slices.Collect(domain.ChartSeries(entries))
	require.Len(t, points, 9)

	for i, p := range points {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, day(i), p.Date)
		require.True(t, p.RunningAverage.Valid, "point %d", i)
	}
	assert.Equal(t, 210.0, points[0].RunningAverage.Value)
	assert.InDelta(t, 209.0, points[1].RunningAverage.Value, 1e-9)
	// seventh point switches to the full window
	assert.InDelta(t, 204.0, points[6].RunningAverage.Value, 1e-9)
	assert.InDelta(t, 202.0, points[7].RunningAverage.Value, 1e-9)
	assert.InDelta(t, 200.0, points[8].RunningAverage.Value, 1e-9)
}

func TestChartSeries_Restartable(t *testing.T) {
	seq := domain.ChartSeries(week(200, 199, 198))

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	var n int
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)
	assert.Empty(t, slices.Collect(domain.ChartSeries(nil)))
}

func TestNullPoundsJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A domain.NullPounds `json:"a"`
		B domain.NullPounds `json:"b"`
	}{A: domain.Pounds(197.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":197.5,"b":null}`, string(b))

	var out struct {
		A domain.NullPounds `json:"a"`
		B domain.NullPounds `json:"b"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, domain.Pounds(197.5), out.A)
	assert.False(t, out.B.Valid)
}
