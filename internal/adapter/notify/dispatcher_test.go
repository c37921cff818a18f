package notify

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"weightquest/internal/events"
	"weightquest/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockSender records calls for assertion.
type mockSender struct {
	mu    sync.Mutex
	urls  []string
	calls []string
	fail  bool
}

func (m *mockSender) Send(url, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, url)
	m.calls = append(m.calls, message)
	if m.fail {
		return errors.New("mock send error")
	}
	return nil
}

func (m *mockSender) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func TestDispatcher_SendsMilestonesToEveryURL(t *testing.T) {
	bus := events.NewBus()
	sender := &mockSender{}
	m := metrics.NewTestManager()
	d := NewDispatcher([]string{"generic://a.example.com", "generic://b.example.com"}, bus, sender, m)
	d.Start()

	bus.Publish(events.Event{Type: events.LevelAchieved, UserID: 1, Level: 2, Message: "Level up! Level 2"})
	bus.Publish(events.Event{Type: events.OnboardingCompleted, UserID: 1, Message: "Baseline set"})
	d.Stop()

	assert.Equal(t, []string{"Level up! Level 2", "Level up! Level 2", "Baseline set", "Baseline set"}, sender.messages())
	assert.Equal(t, 4.0, testutil.ToFloat64(m.CounterNotifications.WithLabelValues("sent")))
}

func TestDispatcher_IgnoresOtherEvents(t *testing.T) {
	bus := events.NewBus()
	sender := &mockSender{}
	d := NewDispatcher([]string{"generic://a.example.com"}, bus, sender, nil)
	d.Start()

	bus.Publish(events.Event{Type: events.WeightRecorded, Message: "weight recorded"})
	bus.Publish(events.Event{Type: events.ProgressReset, Message: "progress reset"})
	d.Stop()

	assert.Empty(t, sender.messages())
}

func TestDispatcher_FailuresAreCounted(t *testing.T) {
	bus := events.NewBus()
	sender := &mockSender{fail: true}
	m := metrics.NewTestManager()
	d := NewDispatcher([]string{"generic://a.example.com"}, bus, sender, m)
	d.Start()

	bus.Publish(events.Event{Type: events.LevelAchieved, Level: 3, Message: "Level up! Level 3"})
	d.Stop()

	assert.Len(t, sender.messages(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterNotifications.WithLabelValues("failed")))
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	d := NewDispatcher(nil, events.NewBus(), &mockSender{}, nil)
	d.Start()
	d.Stop()
	d.Stop()
}
