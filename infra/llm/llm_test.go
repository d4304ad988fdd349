package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/omnidispatch/core/advice"
	"github.com/kilianp07/omnidispatch/core/model"
)

type fakeServer struct {
	mu       sync.Mutex
	status   int
	content  string
	requests []openai.ChatCompletionRequest
	auth     string
}

func (f *fakeServer) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var req openai.ChatCompletionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.requests = append(f.requests, req)
	f.auth = r.Header.Get("Authorization")
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
		ID:    "cmpl-1",
		Model: req.Model,
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content},
		}},
	})
}

func newClient(t *testing.T, f *fakeServer) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	t.Cleanup(srv.Close)
	c, err := NewClient(ProviderConfig{Name: "groq", BaseURL: srv.URL + "/v1/", Model: "llama-test", APIKey: "secret"})
	require.NoError(t, err)
	return c
}

const validJSON = `{"emergency_type":"fire","priority":"critical","description":"Kitchen fire spreading","requires_fire":true,"requires_medical":true,"requires_police":false,"number_of_victims":2,"immediate_danger":true,"caller_reassurance":"Get out now."}`

func TestClassifierParsesFencedJSON(t *testing.T) {
	f := &fakeServer{content: "```json\n" + validJSON + "\n```"}
	cl := NewClassifier(newClient(t, f))

	got, err := cl.Classify(context.Background(), "kitchen on fire")
	require.NoError(t, err)
	assert.Equal(t, model.EmergencyFire, got.EmergencyType)
	assert.Equal(t, 2, got.NumberOfVictims)
	assert.Equal(t, "groq", got.Source)
	assert.Equal(t, []string{}, got.SpecialEquipment)
	assert.Equal(t, "groq", cl.Name())

	require.Len(t, f.requests, 1)
	assert.Equal(t, "llama-test", f.requests[0].Model)
	assert.Equal(t, "Bearer secret", f.auth)
	assert.Contains(t, f.requests[0].Messages[1].Content, "kitchen on fire")
}

func TestClassifierMalformed(t *testing.T) {
	for _, content := range []string{"I think it's a fire", `{"emergency_type":"volcano","priority":"high","description":"x"}`} {
		f := &fakeServer{content: content}
		_, err := NewClassifier(newClient(t, f)).Classify(context.Background(), "help")
		var mre *model.MalformedResponseError
		require.True(t, errors.As(err, &mre), content)
		assert.Equal(t, content, mre.Raw)
	}
}

func TestClassifierUnavailable(t *testing.T) {
	f := &fakeServer{status: http.StatusServiceUnavailable}
	_, err := NewClassifier(newClient(t, f)).Classify(context.Background(), "help")
	assert.ErrorIs(t, err, model.ErrExternalUnavailable)
}

func TestAdvisorSendsContextAndHistory(t *testing.T) {
	f := &fakeServer{content: "  Stay low and crawl to the door.  "}
	a := NewAdvisor(newClient(t, f))
	req := advice.Request{
		Transcript: "smoke is getting thicker",
		Context: model.EmergencyContext{
			EmergencyType:   model.EmergencyFire,
			Priority:        model.PriorityCritical,
			UnitsDispatched: []string{"Engine 7", "Medic 5"},
			ETAMinutes:      3,
			IncidentID:      "INC-1",
		},
		History: []model.Turn{
			{Speaker: model.SpeakerCaller, Text: "fire in the kitchen"},
			{Speaker: model.SpeakerAssistant, Text: "Get out now."},
			{Speaker: model.SpeakerCaller, Text: "smoke is getting thicker"},
		},
	}
	text, err := a.Advise(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Stay low and crawl to the door.", text)

	msgs := f.requests[0].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Engine 7, Medic 5")
	assert.Equal(t, openai.ChatMessageRoleAssistant, msgs[2].Role)
	assert.Equal(t, "smoke is getting thicker", msgs[3].Content)
}

func TestAdvisorAppendsTranscriptWithoutHistory(t *testing.T) {
	f := &fakeServer{content: "ok"}
	_, err := NewAdvisor(newClient(t, f)).Advise(context.Background(), advice.Request{Transcript: "bye", Ending: true})
	require.NoError(t, err)
	msgs := f.requests[0].Messages
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "ending the call")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(ProviderConfig{Name: "cerebras"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFence(`  {"a":1} `))
}
