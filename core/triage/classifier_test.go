package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/omnidispatch/core/logger"
	"github.com/kilianp07/omnidispatch/core/model"
)

type stubClassifier struct {
	name  string
	out   model.Classification
	err   error
	calls int
}

func (s *stubClassifier) Name() string { return s.name }

func (s *stubClassifier) Classify(context.Context, string) (model.Classification, error) {
	s.calls++
	return s.out, s.err
}

var valid = model.Classification{
	EmergencyType:   model.EmergencyMedical,
	Priority:        model.PriorityHigh,
	Description:     "Adult male unresponsive",
	RequiresMedical: true,
}

func TestResilientUsesFirstHealthyProvider(t *testing.T) {
	down := &stubClassifier{name: "cerebras", err: model.ErrExternalUnavailable}
	up := &stubClassifier{name: "groq", out: valid}
	r := NewResilient(logger.NopLogger{}, nil, down, up)

	got, err := r.Classify(context.Background(), "he is not breathing")
	require.NoError(t, err)
	assert.Equal(t, "groq", got.Source)
	assert.Equal(t, model.EmergencyMedical, got.EmergencyType)
	assert.Equal(t, 1, down.calls)
}

func TestResilientRejectsInvalidOutput(t *testing.T) {
	bogus := &stubClassifier{name: "groq", out: model.Classification{EmergencyType: "alien", Priority: "now"}}
	r := NewResilient(nil, nil, bogus)
	got, err := r.Classify(context.Background(), "smoke everywhere")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, model.EmergencyFire, got.EmergencyType)
}

func TestResilientFallsBackOnMalformed(t *testing.T) {
	broken := &stubClassifier{name: "cerebras", err: &model.MalformedResponseError{Component: "classifier", Err: errors.New("eof")}}
	r := NewResilient(nil, nil, broken)
	got, err := r.Classify(context.Background(), "car crash")
	require.NoError(t, err)
	assert.Equal(t, model.EmergencyAccident, got.EmergencyType)
}

func TestResilientStopsOnCancelledContext(t *testing.T) {
	first := &stubClassifier{name: "a", err: context.DeadlineExceeded}
	second := &stubClassifier{name: "b", out: valid}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := NewResilient(nil, nil, first, second).Classify(ctx, "help")
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Zero(t, second.calls)
}
