// Package speech synthesizes caller guidance with the ElevenLabs
// text-to-speech API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/omnidispatch/core/model"
	corespeech "github.com/kilianp07/omnidispatch/core/speech"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultVoiceID = "CwhRBWXzGAHq8TQ4Fs17"
	DefaultModelID = "eleven_turbo_v2_5"
	// maxAudioBytes bounds a single synthesized answer.
	maxAudioBytes = 10 << 20
)

// ErrNoAPIKey is returned when the synthesizer has no credentials.
var ErrNoAPIKey = errors.New("speech: api key is required")

// Config configures the ElevenLabs client.
type Config struct {
	Enabled        bool   `json:"enabled"`
	APIKey         string `json:"api_key"`
	APIKeyEnv      string `json:"api_key_env"`
	VoiceID        string `json:"voice_id"`
	ModelID        string `json:"model_id"`
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.VoiceID == "" {
		c.VoiceID = DefaultVoiceID
	}
	if c.ModelID == "" {
		c.ModelID = DefaultModelID
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// ElevenLabs implements core/speech.Synthesizer.
type ElevenLabs struct {
	cfg    Config
	client *http.Client
}

// NewElevenLabs creates a synthesizer for cfg.
func NewElevenLabs(cfg Config) (*ElevenLabs, error) {
	cfg.SetDefaults()
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	return &ElevenLabs{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}, nil
}

// Synthesize renders text as MPEG audio.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (corespeech.Audio, error) {
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: e.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       0.6,
			SimilarityBoost: 0.8,
			Style:           0.3,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return corespeech.Audio{}, err
	}
	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/v1/text-to-speech/" + e.cfg.VoiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return corespeech.Audio{}, err
	}
	req.Header.Set("xi-api-key", e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.client.Do(req)
	if err != nil {
		return corespeech.Audio{}, fmt.Errorf("speech: %w: %w", model.ErrExternalUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return corespeech.Audio{}, fmt.Errorf("speech: %w: ElevenLabs error: %d", model.ErrExternalUnavailable, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return corespeech.Audio{}, fmt.Errorf("speech: read audio: %w", err)
	}
	return corespeech.Audio{Data: data, Format: "audio/mpeg"}, nil
}
