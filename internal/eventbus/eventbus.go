// Package eventbus fans state-change events out to live observers.
package eventbus

import (
	"errors"
	"sync"

	"github.com/kilianp07/omnidispatch/core/events"
	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/core/metrics"
)

// ErrClosed is returned when registering on a closed bus.
var ErrClosed = errors.New("eventbus: closed")

// Observer receives events. Send must not block for long: slow transports
// queue internally and report a full queue as an error.
type Observer interface {
	ID() string
	Send(events.Event) error
}

// Closer is implemented by observers holding a connection that should be
// released when they are dropped.
type Closer interface {
	Close() error
}

// SnapshotFunc builds the initial_state event for a new observer.
type SnapshotFunc func() events.Event

// EventBus is the fan-out contract used by the dispatch engine.
type EventBus interface {
	Publish(events.Event)
	Register(Observer) error
	Unregister(id string)
	Len() int
	Close()
}

// Bus delivers every event at most once to every registered observer.
// Observers whose delivery fails are removed after the fan-out completes.
type Bus struct {
	// pub serializes deliveries so that an observer never sees its
	// initial_state after a later event.
	pub       sync.Mutex
	mu        sync.RWMutex
	observers map[string]Observer
	closed    bool

	snapshot SnapshotFunc
	gauge    metrics.ObserverGaugeRecorder
	log      logger.Logger
}

type Option func(*Bus)

// WithSnapshot sets the initial_state builder sent on registration.
func WithSnapshot(fn SnapshotFunc) Option { return func(b *Bus) { b.snapshot = fn } }

// WithGauge reports the observer count after every change.
func WithGauge(g metrics.ObserverGaugeRecorder) Option { return func(b *Bus) { b.gauge = g } }

func WithLogger(l logger.Logger) Option { return func(b *Bus) { b.log = l } }

// New creates a Bus.
func New(opts ...Option) *Bus {
	b := &Bus{observers: make(map[string]Observer), log: logger.NopLogger{}}
	for _, o := range opts {
		o(b)
	}
	b.log = logger.OrNop(b.log)
	return b
}

// SetSnapshot replaces the initial_state builder.
func (b *Bus) SetSnapshot(fn SnapshotFunc) {
	b.pub.Lock()
	b.snapshot = fn
	b.pub.Unlock()
}

// Register adds o and sends it the current state. Registering an id twice
// is a no-op. An observer that cannot take the snapshot is not registered.
func (b *Bus) Register(o Observer) error {
	b.pub.Lock()
	defer b.pub.Unlock()

	b.mu.RLock()
	_, exists := b.observers[o.ID()]
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if exists {
		return nil
	}
	if b.snapshot != nil {
		if err := o.Send(b.snapshot()); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.observers[o.ID()] = o
	n := len(b.observers)
	b.mu.Unlock()
	b.log.Debugf("observer %s registered (%d connected)", o.ID(), n)
	b.record(n)
	return nil
}

// Unregister removes the observer with id. Unknown ids are ignored.
func (b *Bus) Unregister(id string) {
	b.mu.Lock()
	o, ok := b.observers[id]
	delete(b.observers, id)
	n := len(b.observers)
	b.mu.Unlock()
	if !ok {
		return
	}
	b.log.Debugf("observer %s unregistered (%d connected)", id, n)
	release(o)
	b.record(n)
}

// Publish delivers e to every observer and prunes those that failed.
func (b *Bus) Publish(e events.Event) {
	b.pub.Lock()
	defer b.pub.Unlock()

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	targets := make([]Observer, 0, len(b.observers))
	for _, o := range b.observers {
		targets = append(targets, o)
	}
	b.mu.RUnlock()

	var failed []Observer
	for _, o := range targets {
		if err := o.Send(e); err != nil {
			b.log.Warnf("dropping observer %s after failed %s delivery: %v", o.ID(), e.Kind(), err)
			failed = append(failed, o)
		}
	}
	if len(failed) == 0 {
		return
	}

	b.mu.Lock()
	for _, o := range failed {
		delete(b.observers, o.ID())
	}
	n := len(b.observers)
	b.mu.Unlock()
	for _, o := range failed {
		release(o)
	}
	b.record(n)
}

// Len returns the number of registered observers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}

// Close drops every observer. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	obs := b.observers
	b.observers = make(map[string]Observer)
	b.mu.Unlock()
	for _, o := range obs {
		release(o)
	}
	b.record(0)
}

func (b *Bus) record(n int) {
	if b.gauge == nil {
		return
	}
	if err := b.gauge.RecordObservers(n); err != nil {
		b.log.Warnf("observer gauge: %v", err)
	}
}

func release(o Observer) {
	if c, ok := o.(Closer); ok {
		_ = c.Close()
	}
}
