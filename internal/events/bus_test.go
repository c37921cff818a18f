package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishCallsMatchingSubscriber(t *testing.T) {
	bus := NewBus()
	var called atomic.Bool

	bus.Subscribe(func(e Event) {
		assert.Equal(t, LevelAchieved, e.Type)
		assert.Equal(t, 3, e.Level)
		called.Store(true)
	}, LevelAchieved)

	bus.Publish(Event{Type: LevelAchieved, Level: 3})

	assert.True(t, called.Load(), "subscriber was not called")
}

func TestSubscriberIgnoresUnmatchedTypes(t *testing.T) {
	bus := NewBus()
	var called atomic.Bool

	bus.Subscribe(func(e Event) { called.Store(true) }, LevelAchieved)
	bus.Publish(Event{Type: WeightRecorded})

	assert.False(t, called.Load())
}

func TestWildcardSubscriberReceivesAll(t *testing.T) {
	bus := NewBus()
	var count atomic.Int32

	bus.Subscribe(func(e Event) { count.Add(1) })

	bus.Publish(Event{Type: WeightRecorded})
	bus.Publish(Event{Type: LevelAchieved})
	bus.Publish(Event{Type: ProgressReset})

	assert.EqualValues(t, 3, count.Load())
}

func TestPublishTimestamps(t *testing.T) {
	bus := NewBus()
	var got []time.Time
	bus.Subscribe(func(e Event) { got = append(got, e.Timestamp) })

	explicit := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bus.Publish(Event{Type: WeightRecorded})
	bus.Publish(Event{Type: WeightRecorded, Timestamp: explicit})

	assert.False(t, got[0].IsZero())
	assert.Equal(t, explicit, got[1])
}

func TestPanickingSubscriberDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	var called atomic.Bool

	bus.Subscribe(func(e Event) { panic("boom") })
	bus.Subscribe(func(e Event) { called.Store(true) })

	assert.NotPanics(t, func() { bus.Publish(Event{Type: LevelAchieved}) })
	assert.True(t, called.Load())
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewBus()
	var count atomic.Int32
	var wg sync.WaitGroup

	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Subscribe(func(Event) { count.Add(1) })
		}()
		go func() {
			defer wg.Done()
			bus.Publish(Event{Type: WeightRecorded})
		}()
	}
	wg.Wait()

	count.Store(0)
	bus.Publish(Event{Type: WeightRecorded})
	assert.EqualValues(t, 10, count.Load())
}
