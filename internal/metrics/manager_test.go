package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weightquest/internal/events"
)

func TestNewManager_RegistersCollectors(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()
	m.CounterRequests.WithLabelValues("GET", "200").Inc()
	m.HistRequestDuration.WithLabelValues("GET").Observe(0.01)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["weightquest_test_requests_total"])
	assert.True(t, names["weightquest_test_request_duration_seconds"])
}

func TestObserve_CountsProgressEvents(t *testing.T) {
	m := NewTestManager()
	bus := events.NewBus()
	m.Observe(bus)

	bus.Publish(events.Event{Type: events.WeightRecorded})
	bus.Publish(events.Event{Type: events.WeightRecorded})
	bus.Publish(events.Event{Type: events.OnboardingCompleted})
	bus.Publish(events.Event{Type: events.LevelAchieved, Level: 2})
	bus.Publish(events.Event{Type: events.LevelConfirmed, Level: 2})
	bus.Publish(events.Event{Type: events.ProgressReset})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterWeightSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterOnboarding))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterLevelUps.WithLabelValues("2")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CounterLevelUps.WithLabelValues("3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterLevelConfirmed))
}
