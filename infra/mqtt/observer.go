package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/kilianp07/omnidispatch/core/events"
	"github.com/kilianp07/omnidispatch/core/logger"
)

var (
	ErrQueueFull = errors.New("mqtt: publish queue full")
	ErrClosed    = errors.New("mqtt: observer closed")
)

// retainedKinds are kept by the broker so late subscribers see the
// current fleet immediately.
var retainedKinds = map[string]bool{
	events.KindInitialState:    true,
	events.KindResponderUpdate: true,
}

type message struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// EventObserver forwards bus events to <prefix>/<kind>. Send only queues;
// a single worker publishes in order.
type EventObserver struct {
	id     string
	pub    Publisher
	cfg    Config
	log    logger.Logger
	queue  chan message
	once   sync.Once
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewEventObserver starts the publishing worker.
func NewEventObserver(pub Publisher, cfg Config, log logger.Logger) *EventObserver {
	cfg.SetDefaults()
	o := &EventObserver{
		id:    "mqtt:" + cfg.ClientID,
		pub:   pub,
		cfg:   cfg,
		log:   logger.OrNop(log),
		queue: make(chan message, cfg.QueueSize),
	}
	o.wg.Add(1)
	go o.run()
	return o
}

func (o *EventObserver) ID() string { return o.id }

// Topic returns the topic used for an event kind.
func (o *EventObserver) Topic(kind string) string {
	return strings.TrimRight(o.cfg.TopicPrefix, "/") + "/" + kind
}

// Send implements eventbus.Observer.
func (o *EventObserver) Send(e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	m := message{
		topic:    o.Topic(e.Kind()),
		qos:      o.cfg.qos(e.Kind()),
		retained: retainedKinds[e.Kind()],
		payload:  payload,
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrClosed
	}
	select {
	case o.queue <- m:
		return nil
	default:
		return ErrQueueFull
	}
}

func (o *EventObserver) run() {
	defer o.wg.Done()
	for m := range o.queue {
		if err := o.pub.Publish(m.topic, m.qos, m.retained, m.payload); err != nil {
			o.log.Errorf("publish %s: %v", m.topic, err)
		}
	}
}

// Close flushes queued events and stops the worker.
func (o *EventObserver) Close() error {
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.queue)
		o.mu.Unlock()
		o.wg.Wait()
	})
	return nil
}
