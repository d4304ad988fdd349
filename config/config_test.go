package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/omnidispatch/core/model"
	"github.com/kilianp07/omnidispatch/infra/speech"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `server:
  addr: ":9000"
  cors_origins: ["http://ops.local"]
  logs_token: "s3cret"
dispatch:
  external_timeout_seconds: 10
  reinit_fleet_on_first_contact: true
  default_location:
    lat: 48.85
    lng: 2.35
    address: "Paris"
ai:
  providers:
    - name: groq
      base_url: "https://api.groq.com/openai/v1"
      model: "llama-3.3-70b-versatile"
      api_key: "gk"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  qos:
    default: 1
logging:
  backend: sqlite
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"server.addr", cfg.Server.Addr, ":9000"},
		{"server.logs_token", cfg.Server.LogsToken, "s3cret"},
		{"dispatch.timeout", cfg.Dispatch.ExternalTimeoutSeconds, 10},
		{"dispatch.reinit", cfg.Dispatch.ReinitFleetOnFirstContact, true},
		{"dispatch.fallback_eta", cfg.Dispatch.FallbackETAMinutes, 5},
		{"dispatch.location", cfg.Dispatch.DefaultLocation, model.Location{Lat: 48.85, Lng: 2.35, Address: "Paris"}},
		{"ai.providers", len(cfg.AI.Providers), 1},
		{"ai.configured", len(cfg.AI.Configured()), 1},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.prefix", cfg.MQTT.TopicPrefix, "omnidispatch/events"},
		{"mqtt.qos", cfg.MQTT.QoS["default"], byte(1)},
		{"logging.backend", cfg.Logging.Backend, "sqlite"},
		{"logging.path", cfg.Logging.Path, "dispatch.db"},
		{"speech.voice", cfg.Speech.VoiceID, speech.DefaultVoiceID},
		{"metrics.port", cfg.Metrics.PrometheusPort, ":9091"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	assert.Equal(t, []string{"http://ops.local"}, cfg.Server.CORSOrigins)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 12, cfg.Dispatch.ExternalTimeoutSeconds)
	assert.Equal(t, 30, cfg.Dispatch.SessionTTLMinutes)
	assert.Equal(t, model.DefaultLocation, cfg.Dispatch.DefaultLocation)
	require.Len(t, cfg.AI.Providers, 2)
	assert.Equal(t, "cerebras", cfg.AI.Providers[0].Name)
	assert.Equal(t, "jsonl", cfg.Logging.Backend)
	assert.False(t, cfg.MQTT.Enabled)
}

func TestEnvOverridesAndSecrets(t *testing.T) {
	t.Setenv("OMNI_SERVER__ADDR", ":7000")
	t.Setenv("OMNI_DISPATCH__SESSION_TTL_MINUTES", "5")
	t.Setenv("CEREBRAS_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "from-env")
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps")
	t.Setenv("ELEVENLABS_API_KEY", "tts")
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Dispatch.SessionTTLMinutes)

	configured := cfg.AI.Configured()
	require.Len(t, configured, 1)
	assert.Equal(t, "groq", configured[0].Name)
	assert.Equal(t, "from-env", configured[0].APIKey)

	assert.True(t, cfg.Places.Enabled)
	assert.Equal(t, "maps", cfg.Places.APIKey)
	assert.True(t, cfg.Speech.Enabled)
	assert.Equal(t, "voice-2", cfg.Speech.VoiceID)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"logging":{"backend":"none"},"metrics":{"prometheus_enabled":true}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Logging.Backend)
	assert.True(t, cfg.Metrics.PrometheusEnabled)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"timeout": "dispatch:\n  external_timeout_seconds: 120\n",
		"backend": "logging:\n  backend: kafka\n",
		"mqtt":    "mqtt:\n  enabled: true\n",
		"ai":      "ai:\n  providers:\n    - name: x\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", data))
			assert.Error(t, err)
		})
	}
	_, err := Load(writeFile(t, "config.toml", "a = 1"))
	assert.Error(t, err)
}
