package config

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestParseJson_OverlaysValues(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_base_url": "https://hub.example.com/api",
		"database_dsn":    "state.db",
		"request_timeout": "20s",
		"refresh_skew":    "45s",
	})

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
	os.Args = []string{"cmd", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NotPanics(t, func() { parseJson(cfg) })

	assert.Equal(t, "https://hub.example.com/api", cfg.ServerBaseURL)
	assert.Equal(t, "state.db", cfg.DatabaseDSN)
	assert.Equal(t, 20*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 45*time.Second, cfg.RefreshSkew)
}

func TestParseJson_PartialFileKeepsDefaults(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_base_url": "https://hub.example.com/api",
	})

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
	os.Args = []string{"cmd", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NotPanics(t, func() { parseJson(cfg) })

	assert.Equal(t, "https://hub.example.com/api", cfg.ServerBaseURL)
	assert.Equal(t, "homehub.db", cfg.DatabaseDSN)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestParseJson_NoFileFlagIsNoop(t *testing.T) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
	os.Args = []string{"cmd"}

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NotPanics(t, func() { parseJson(cfg) })

	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.ServerBaseURL)
}

func TestParseJson_InvalidFilePanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
	os.Args = []string{"cmd", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	require.Panics(t, func() { parseJson(cfg) })
}
