package notify

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Event announces that reservation data changed. Clients re-read whatever
// they display; the event carries no entity payload.
type Event struct {
	Version uint64    `json:"version"`
	At      time.Time `json:"at"`
	Origin  string    `json:"origin,omitempty"`
}

// Sink receives change events from the dispatcher worker.
type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, ev Event) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Dispatcher fans change signals out to sinks and in-process subscribers
// from a single worker goroutine. Signals raised while the worker is busy
// are coalesced, so a burst of commits produces at most a few events.
type Dispatcher struct {
	origin  string
	signals chan struct{}
	version atomic.Uint64

	mu          sync.Mutex
	hooks       []func()
	sinks       []Sink
	subscribers map[int]chan Event
	nextSub     int
}

// NewDispatcher creates a dispatcher whose signal queue holds buffer pending
// signals. origin tags events so that relayed events can be recognised.
func NewDispatcher(origin string, buffer int) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	return &Dispatcher{
		origin:      origin,
		signals:     make(chan struct{}, buffer),
		subscribers: make(map[int]chan Event),
	}
}

// Origin returns the tag stamped on locally raised events.
func (d *Dispatcher) Origin() string {
	return d.origin
}

// AddSink registers a sink. Sinks are called in registration order.
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

// OnChange registers fn to run synchronously inside Changed, before the
// signal is queued. Hooks must be fast and must not call back into the
// service that raised the change.
func (d *Dispatcher) OnChange(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks = append(d.hooks, fn)
}

// Subscribe returns a channel of events and a function that ends the
// subscription. A subscriber that falls behind misses events rather than
// blocking the dispatcher.
func (d *Dispatcher) Subscribe() (<-chan Event, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextSub
	d.nextSub++
	ch := make(chan Event, 1)
	d.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.subscribers, id)
			close(ch)
		})
	}
}

// Changed runs the OnChange hooks and queues a change signal. It never
// blocks on the worker.
func (d *Dispatcher) Changed() {
	d.mu.Lock()
	hooks := d.hooks
	d.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}

	select {
	case d.signals <- struct{}{}:
	default:
		// A signal is already pending and will cover this change.
	}
}

// Start launches the worker goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.worker(ctx)
}

func (d *Dispatcher) worker(ctx context.Context) {
	log.Println("Change dispatcher started")
	for {
		select {
		case <-d.signals:
			d.Publish(ctx, Event{
				Version: d.version.Add(1),
				At:      time.Now(),
				Origin:  d.origin,
			})
		case <-ctx.Done():
			log.Println("Change dispatcher shutting down")
			return
		}
	}
}

// Publish delivers ev to every sink and subscriber. The worker uses it for
// local changes; relays use it for events raised by other processes.
func (d *Dispatcher) Publish(ctx context.Context, ev Event) {
	d.mu.Lock()
	sinks := append([]Sink(nil), d.sinks...)
	for _, ch := range d.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
	d.mu.Unlock()

	for _, s := range sinks {
		if err := s.Deliver(ctx, ev); err != nil {
			log.Printf("Error delivering change event %d: %v", ev.Version, err)
		}
	}
}
