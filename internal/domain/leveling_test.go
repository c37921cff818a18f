package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weightquest/internal/domain"
)

func TestLevelThresholds(t *testing.T) {
	got := domain.LevelThresholds(30, 200, domain.TotalLevels)
	want := []domain.LevelThreshold{
		{Level: 1, WeightThreshold: 200},
		{Level: 2, WeightThreshold: 194},
		{Level: 3, WeightThreshold: 188},
		{Level: 4, WeightThreshold: 182},
		{Level: 5, WeightThreshold: 176},
	}
	assert.Equal(t, want, got)
}

func TestLevelThresholds_StepIsGoalOverLevels(t *testing.T) {
	th := domain.LevelThresholds(30, 200, domain.TotalLevels)
	assert.Equal(t, 2, domain.DetermineLevel(domain.Pounds(194), th, 1))
	for i := 1; i < len(th); i++ {
		assert.InDelta(t, 6, th[i-1].WeightThreshold-th[i].WeightThreshold, 1e-9)
	}
	// The last tier sits one step short of the full goal weight.
	assert.Greater(t, th[len(th)-1].WeightThreshold, 200.0-30)
}

func TestLevelThresholds_Ordering(t *testing.T) {
	for _, goal := range []float64{0.5, 7, 13.3, 30, 99.9, 200} {
		for _, start := range []float64{120, 187.3, 250, 699} {
			got := domain.LevelThresholds(goal, start, domain.TotalLevels)
			require.Len(t, got, domain.TotalLevels)
			assert.Equal(t, start, got[0].WeightThreshold)
			assert.InDelta(t, start-goal*float64(domain.TotalLevels-1)/float64(domain.TotalLevels), got[domain.TotalLevels-1].WeightThreshold, 1e-9)
			for i := 1; i < len(got); i++ {
				assert.Equal(t, i+1, got[i].Level)
				assert.Less(t, got[i].WeightThreshold, got[i-1].WeightThreshold, "goal=%v start=%v level=%d", goal, start, i+1)
			}
		}
	}
}

func TestLevelThresholds_ZeroGoal(t *testing.T) {
	for _, th := range domain.LevelThresholds(0, 180, domain.TotalLevels) {
		assert.Equal(t, 180.0, th.WeightThreshold)
	}
	assert.Nil(t, domain.LevelThresholds(10, 180, 0))
}

func TestDetermineLevel(t *testing.T) {
	th := domain.LevelThresholds(30, 200, domain.TotalLevels)

	tests := []struct {
		name    string
		trend   domain.NullPounds
		th      []domain.LevelThreshold
		current int
		want    int
	}{
		{"no trend", domain.NullPounds{}, th, 3, 3},
		{"no thresholds", domain.Pounds(150), nil, 2, 2},
		{"above baseline floors at one", domain.Pounds(205), th, 1, 1},
		{"at baseline", domain.Pounds(200), th, 1, 1},
		{"exactly on threshold", domain.Pounds(194), th, 1, 2},
		{"between thresholds", domain.Pounds(190), th, 1, 2},
		{"skips ahead", domain.Pounds(181), th, 1, 4},
		{"on last threshold", domain.Pounds(176), th, 1, 5},
		{"past goal", domain.Pounds(150), th, 2, 5},
		{"regression keeps current", domain.Pounds(199), th, 4, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.DetermineLevel(tc.trend, tc.th, tc.current))
		})
	}
}

func TestDetermineLevel_Monotonic(t *testing.T) {
	th := domain.LevelThresholds(40, 240, domain.TotalLevels)
	trends := []float64{241, 235, 229, 231, 240, 219, 250, 211, 199, 260, 201, 150, 300}

	level, highest := 1, 1
	for _, tr := range trends {
		level = domain.DetermineLevel(domain.Pounds(tr), th, level)
		require.GreaterOrEqual(t, level, highest, "trend %v", tr)
		highest = level
	}
	assert.Equal(t, domain.TotalLevels, level)
}

func TestCheckLevelUp(t *testing.T) {
	assert.True(t, domain.CheckLevelUp(2, 3))
	assert.False(t, domain.CheckLevelUp(3, 3))
	assert.False(t, domain.CheckLevelUp(4, 2))
}

func TestProgressToNextLevel(t *testing.T) {
	th := domain.LevelThresholds(30, 200, domain.TotalLevels)

	tests := []struct {
		name    string
		trend   domain.NullPounds
		th      []domain.LevelThreshold
		current int
		want    float64
	}{
		{"max level without trend", domain.NullPounds{}, th, 5, 100},
		{"max level", domain.Pounds(150), th, 5, 100},
		{"no trend", domain.NullPounds{}, th, 2, 0},
		{"missing thresholds", domain.Pounds(190), nil, 2, 0},
		{"at current threshold", domain.Pounds(200), th, 1, 0},
		{"halfway", domain.Pounds(197), th, 1, 50},
		{"overshoot clamps", domain.Pounds(180), th, 1, 100},
		{"regression clamps", domain.Pounds(210), th, 2, 0},
		{"zero range", domain.Pounds(180), domain.LevelThresholds(0, 180, domain.TotalLevels), 1, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, domain.ProgressToNextLevel(tc.trend, tc.th, tc.current), 1e-9)
		})
	}
}

func TestProgressToNextLevel_Bounds(t *testing.T) {
	for _, goal := range []float64{0, 1, 25, 200} {
		th := domain.LevelThresholds(goal, 220, domain.TotalLevels)
		for level := 1; level <= domain.TotalLevels; level++ {
			for tr := 0.0; tr <= 700; tr += 3.7 {
				got := domain.ProgressToNextLevel(domain.Pounds(tr), th, level)
				require.GreaterOrEqual(t, got, 0.0)
				require.LessOrEqual(t, got, 100.0)
			}
		}
	}
}

func TestRemainingToNextLevel(t *testing.T) {
	th := domain.LevelThresholds(30, 200, domain.TotalLevels)

	got := domain.RemainingToNextLevel(domain.Pounds(196), th, 1)
	require.True(t, got.Valid)
	assert.InDelta(t, 2, got.Value, 1e-9)

	got = domain.RemainingToNextLevel(domain.Pounds(190), th, 1)
	require.True(t, got.Valid)
	assert.Equal(t, 0.0, got.Value)

	assert.False(t, domain.RemainingToNextLevel(domain.NullPounds{}, th, 1).Valid)
	assert.False(t, domain.RemainingToNextLevel(domain.Pounds(160), th, 5).Valid)
	assert.False(t, domain.RemainingToNextLevel(domain.Pounds(190), th[:2], 2).Valid)
}

func TestLevelNames(t *testing.T) {
	assert.Equal(t, "Novice", domain.LevelName(1))
	assert.Equal(t, "Legend", domain.LevelName(5))
	assert.Equal(t, "Novice", domain.LevelName(9))
	assert.Equal(t, "Halfway to your goal!", domain.LevelMessage(3))
	assert.Equal(t, "Your journey begins!", domain.LevelMessage(0))
}
