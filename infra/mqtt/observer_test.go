package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/omnidispatch/core/events"
	"github.com/kilianp07/omnidispatch/core/model"
	"github.com/kilianp07/omnidispatch/internal/eventbus"
)

type recordPublisher struct {
	mu   sync.Mutex
	msgs []message
	err  error
	// block holds publishes until closed
	block chan struct{}
}

func (r *recordPublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, message{topic: topic, qos: qos, retained: retained, payload: payload})
	return r.err
}

func (r *recordPublisher) messages() []message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]message(nil), r.msgs...)
}

func TestEventObserverPublishesOnKindTopic(t *testing.T) {
	pub := &recordPublisher{}
	cfg := Config{ClientID: "ops", TopicPrefix: "city/dispatch/", QoS: map[string]byte{"default": 1, events.KindNewIncident: 2}}
	obs := NewEventObserver(pub, cfg, nil)
	assert.Equal(t, "mqtt:ops", obs.ID())

	bus := eventbus.New(eventbus.WithSnapshot(func() events.Event { return events.NewInitialState(nil, nil) }))
	require.NoError(t, bus.Register(obs))
	bus.Publish(events.NewNewIncident(model.Incident{ID: "INC-1"}))
	bus.Publish(events.NewResponderUpdate(nil))
	require.NoError(t, obs.Close())

	msgs := pub.messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "city/dispatch/initial_state", msgs[0].topic)
	assert.True(t, msgs[0].retained)
	assert.Equal(t, byte(1), msgs[0].qos)

	assert.Equal(t, "city/dispatch/new_incident", msgs[1].topic)
	assert.False(t, msgs[1].retained)
	assert.Equal(t, byte(2), msgs[1].qos)
	var got events.NewIncident
	require.NoError(t, json.Unmarshal(msgs[1].payload, &got))
	assert.Equal(t, "INC-1", got.Incident.ID)

	assert.Equal(t, "city/dispatch/responder_update", msgs[2].topic)
	assert.True(t, msgs[2].retained)
}

func TestEventObserverQueueFull(t *testing.T) {
	pub := &recordPublisher{block: make(chan struct{})}
	obs := NewEventObserver(pub, Config{QueueSize: 1}, nil)

	// the worker takes the first event and blocks, the second fills the queue
	require.NoError(t, obs.Send(events.NewPong()))
	require.Eventually(t, func() bool { return len(obs.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, obs.Send(events.NewPong()))
	assert.ErrorIs(t, obs.Send(events.NewPong()), ErrQueueFull)

	close(pub.block)
	require.NoError(t, obs.Close())
	assert.ErrorIs(t, obs.Send(events.NewPong()), ErrClosed)
	assert.Len(t, pub.messages(), 2)
}

func TestEventObserverSurvivesPublishErrors(t *testing.T) {
	pub := &recordPublisher{err: errors.New("broker down")}
	obs := NewEventObserver(pub, Config{}, nil)
	require.NoError(t, obs.Send(events.NewIncidentsCleared(nil)))
	require.NoError(t, obs.Send(events.NewIncidentsCleared(nil)))
	require.NoError(t, obs.Close())
	require.NoError(t, obs.Close())
	msgs := pub.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "omnidispatch/events/incidents_cleared", msgs[0].topic)
}
