package metrics

import (
	"strconv"

	"weightquest/internal/events"
)

// Observe counts progress events published on bus.
func (m *Manager) Observe(bus *events.Bus) {
	bus.Subscribe(func(e events.Event) {
		switch e.Type {
		case events.WeightRecorded:
			m.CounterWeightSubmitted.Inc()
		case events.OnboardingCompleted:
			m.CounterOnboarding.Inc()
		case events.LevelAchieved:
			m.CounterLevelUps.WithLabelValues(strconv.Itoa(e.Level)).Inc()
		case events.LevelConfirmed:
			m.CounterLevelConfirmed.Inc()
		}
	}, events.WeightRecorded, events.OnboardingCompleted, events.LevelAchieved, events.LevelConfirmed)
}
