package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/omnidispatch/core/model"
)

func TestSynthesize(t *testing.T) {
	var got ttsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/"+DefaultVoiceID, r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("xi-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	s, err := NewElevenLabs(Config{APIKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)
	audio, err := s.Synthesize(context.Background(), "Help is on the way.")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3audio"), audio.Data)
	assert.Equal(t, "audio/mpeg", audio.Format)
	assert.Equal(t, "Help is on the way.", got.Text)
	assert.Equal(t, DefaultModelID, got.ModelID)
	assert.InDelta(t, 0.6, got.VoiceSettings.Stability, 1e-9)
	assert.True(t, got.VoiceSettings.UseSpeakerBoost)
}

func TestSynthesizeStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s, err := NewElevenLabs(Config{APIKey: "bad", BaseURL: srv.URL, VoiceID: "v1"})
	require.NoError(t, err)
	_, err = s.Synthesize(context.Background(), "hi")
	assert.ErrorIs(t, err, model.ErrExternalUnavailable)
	assert.Contains(t, err.Error(), "401")
}

func TestNewElevenLabsRequiresKey(t *testing.T) {
	_, err := NewElevenLabs(Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
