package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFleetCommand(t *testing.T) {
	out, err := execute(t, "fleet", "--env-file", "", "--lat", "17.385", "--lng", "78.4867")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, out, "fire")
	assert.Contains(t, out, "medical")
	assert.Contains(t, out, "police")
}

func TestReportCommand(t *testing.T) {
	for _, k := range []string{"CEREBRAS_API_KEY", "GROQ_API_KEY", "GOOGLE_MAPS_API_KEY",
		"NEXT_PUBLIC_GOOGLE_MAPS_API_KEY", "ELEVENLABS_API_KEY"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("logging:\n  backend: none\n"), 0o600))

	out, err := execute(t, "report", "-c", cfgFile, "--env-file", filepath.Join(dir, "missing.env"),
		"my neighbour's house is on fire", "the smoke is getting thicker", "thank you, bye")
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	var outcomes []map[string]any
	for dec.More() {
		var o map[string]any
		require.NoError(t, dec.Decode(&o))
		outcomes = append(outcomes, o)
	}
	require.Len(t, outcomes, 3)
	assert.Equal(t, "fire", outcomes[0]["emergency_type"])
	assert.NotEmpty(t, outcomes[0]["dispatched_units"])
	assert.Equal(t, true, outcomes[1]["is_followup"])
	assert.Equal(t, true, outcomes[2]["is_ending"])
	assert.NotEmpty(t, outcomes[0]["session_id"])
	assert.Equal(t, outcomes[0]["session_id"], outcomes[2]["session_id"])
}

func TestEnvFileLoaded(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OMNI_TEST_MARKER=loaded\n"), 0o600))
	t.Setenv("OMNI_TEST_MARKER", "")
	require.NoError(t, os.Unsetenv("OMNI_TEST_MARKER"))

	envPath = envFile
	t.Cleanup(func() { envPath = ".env"; _ = os.Unsetenv("OMNI_TEST_MARKER") })
	require.NoError(t, loadEnv(nil, nil))
	assert.Equal(t, "loaded", os.Getenv("OMNI_TEST_MARKER"))
}
