package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/omnidispatch/core/model"
)

func TestKindMatchesTypeField(t *testing.T) {
	evs := []Event{
		NewInitialState(nil, nil),
		NewNewIncident(model.Incident{ID: "INC-1"}),
		NewResponderUpdate(nil),
		NewIncidentsCleared([]string{"INC-1"}),
		NewPong(),
	}
	for _, ev := range evs {
		b, err := json.Marshal(ev)
		require.NoError(t, err)
		var probe struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(b, &probe))
		assert.Equal(t, ev.Kind(), probe.Type)
	}
}

func TestInitialStateEmptyListsAreArrays(t *testing.T) {
	b, err := json.Marshal(NewInitialState(nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"initial_state","incidents":[],"responders":[]}`, string(b))
}
