// Package notify delivers milestone events to external services through
// Shoutrrr URLs (Discord, Telegram, ntfy, generic webhooks and so on).
package notify

import (
	"sync"

	"github.com/nicholas-fedor/shoutrrr"
	log "github.com/sirupsen/logrus"

	"weightquest/internal/events"
	"weightquest/internal/metrics"
)

const queueSize = 64

// Sender abstracts message dispatch so the dispatcher can be tested
// without hitting real services.
type Sender interface {
	Send(shoutrrrURL, message string) error
}

// ShoutrrrSender dispatches via the Shoutrrr library.
type ShoutrrrSender struct{}

// Send implements Sender.
func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

// Dispatcher forwards onboarding and level-up events to every configured
// URL from a single background goroutine. Delivery failures are logged and
// never reach the publisher.
type Dispatcher struct {
	urls    []string
	bus     *events.Bus
	sender  Sender
	metrics *metrics.Manager

	ch     chan events.Event
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher for urls. A nil sender uses Shoutrrr and
// a nil metrics manager disables counting.
func NewDispatcher(urls []string, bus *events.Bus, sender Sender, m *metrics.Manager) *Dispatcher {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	return &Dispatcher{
		urls:    urls,
		bus:     bus,
		sender:  sender,
		metrics: m,
		ch:      make(chan events.Event, queueSize),
		stopCh:  make(chan struct{}),
	}
}

// Start subscribes to the bus and begins dispatching.
func (d *Dispatcher) Start() {
	d.bus.Subscribe(func(e events.Event) {
		select {
		case <-d.stopCh:
			return
		default:
		}
		select {
		case d.ch <- e:
		default:
			log.WithField("event", e.Type).Warn("notify: queue full, dropping event")
		}
	}, events.OnboardingCompleted, events.LevelAchieved)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case e := <-d.ch:
				d.handle(e)
			case <-d.stopCh:
				for {
					select {
					case e := <-d.ch:
						d.handle(e)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop drains queued events and waits for the worker to exit.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.stopCh) })
	d.wg.Wait()
}

func (d *Dispatcher) handle(e events.Event) {
	for _, url := range d.urls {
		err := d.sender.Send(url, e.Message)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"event":   e.Type,
				"user_id": e.UserID,
			}).Error("notify: send failed")
		}
		d.count(err)
	}
}

func (d *Dispatcher) count(err error) {
	if d.metrics == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	d.metrics.CounterNotifications.WithLabelValues(result).Inc()
}
