package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/omnidispatch/config"
	"github.com/kilianp07/omnidispatch/core/dispatch/logging"
	"github.com/kilianp07/omnidispatch/core/factory"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, k := range []string{"CEREBRAS_API_KEY", "GROQ_API_KEY", "GOOGLE_MAPS_API_KEY",
		"NEXT_PUBLIC_GOOGLE_MAPS_API_KEY", "ELEVENLABS_API_KEY"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  addr: \"127.0.0.1:0\"\n  logs_token: secret\n" +
		"logging:\n  backend: sqlite\n  path: " + filepath.Join(dir, "dispatch.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestServiceWiresEngineAndRoutes(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer svc.Close()

	srv := httptest.NewServer(svc.Router)
	defer srv.Close()

	body := `{"session_id":"c1","transcript":"someone collapsed and is not breathing"}`
	resp, err := http.Post(srv.URL+"/api/emergency/process", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/dispatch/logs", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recs []logging.LogRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "c1", recs[0].SessionID)
	assert.Equal(t, "fallback", recs[0].ClassifierSource)

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "missing_key", health["groq"])
	assert.Equal(t, "missing_key", health["google_places"])
	assert.EqualValues(t, 1, health["active_incidents"])
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewLogStoreBackends(t *testing.T) {
	dir := t.TempDir()
	s, err := newLogStore(config.LoggingConfig{Backend: "none"})
	require.NoError(t, err)
	assert.IsType(t, logging.NopStore{}, s)

	s, err = newLogStore(config.LoggingConfig{Backend: "jsonl", Path: filepath.Join(dir, "a.log")})
	require.NoError(t, err)
	assert.IsType(t, &logging.JSONLStore{}, s)
	require.NoError(t, s.Close())

	s, err = newLogStore(config.LoggingConfig{Backend: "jsonl", Path: filepath.Join(dir, "b.log"), MaxSizeMB: 1})
	require.NoError(t, err)
	assert.IsType(t, &logging.RotatingJSONLStore{}, s)
	require.NoError(t, s.Close())

	_, err = newLogStore(config.LoggingConfig{Backend: "kafka"})
	assert.ErrorIs(t, err, factory.ErrUnknownType)
}
