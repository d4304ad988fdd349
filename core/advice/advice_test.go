package advice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/omnidispatch/core/model"
)

func ctxOf(kind model.EmergencyType) model.EmergencyContext {
	return model.EmergencyContext{EmergencyType: kind, IncidentID: "INC-1"}
}

func TestCannedTable(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want string
	}{
		{"closing", Request{Transcript: "Thank you so much"}, SignOff},
		{"ending flag", Request{Transcript: "end call", Ending: true}, SignOff},
		{"water rising", Request{Transcript: "the water is rising fast", Context: ctxOf(model.EmergencyDisaster)}, "Water rising is dangerous"},
		{"flood trapped", Request{Transcript: "we are trapped upstairs", Context: ctxOf(model.EmergencyDisaster)}, "I hear you're trapped"},
		{"fire spreading", Request{Transcript: "it is getting worse", Context: ctxOf(model.EmergencyFire)}, "Stay low to the ground"},
		{"fire trapped", Request{Transcript: "I'm trapped in the bedroom", Context: ctxOf(model.EmergencyFire)}, "If you're trapped, seal the door"},
		{"fire default", Request{Transcript: "what now", Context: ctxOf(model.EmergencyFire)}, "Stay low and move toward"},
		{"medical unconscious", Request{Transcript: "she is unconscious", Context: ctxOf(model.EmergencyMedical)}, "Check if they're breathing"},
		{"medical bleeding", Request{Transcript: "he's bleeding a lot", Context: ctxOf(model.EmergencyMedical)}, "Apply firm, direct pressure"},
		{"crime inside", Request{Transcript: "he is still here", Context: ctxOf(model.EmergencyCrime)}, "Stay hidden and silent"},
		{"crime default", Request{Transcript: "he ran off", Context: ctxOf(model.EmergencyCrime)}, "Officers are responding"},
		{"accident", Request{Transcript: "what should I do", Context: ctxOf(model.EmergencyAccident)}, "Don't move anyone"},
		{"general", Request{Transcript: "hello?"}, "Help is on the way. Tell me more"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Canned{}.Advise(context.Background(), c.req)
			assert.NoError(t, err)
			assert.Contains(t, got, c.want)
		})
	}
}

type stubAdvisor struct {
	text string
	err  error
}

func (s stubAdvisor) Advise(context.Context, Request) (string, error) { return s.text, s.err }

func TestResilientPrefersProvider(t *testing.T) {
	r := NewResilient(nil, stubAdvisor{err: model.ErrExternalUnavailable}, stubAdvisor{text: "  Keep pressure on the wound.  "})
	text, fellBack := r.AdviseWithSource(context.Background(), Request{Transcript: "bleeding"})
	assert.Equal(t, "Keep pressure on the wound.", text)
	assert.False(t, fellBack)
}

func TestResilientFallsBack(t *testing.T) {
	r := NewResilient(nil,
		stubAdvisor{text: "   "},
		stubAdvisor{err: &model.MalformedResponseError{Component: "advisor", Err: errors.New("no choices")}},
	)
	text, fellBack := r.AdviseWithSource(context.Background(), Request{Transcript: "smoke in the hallway"})
	assert.True(t, fellBack)
	assert.Contains(t, text, "Stay low and move toward")

	text, err := r.Advise(context.Background(), Request{Transcript: "bye"})
	assert.NoError(t, err)
	assert.Equal(t, SignOff, text)
}
