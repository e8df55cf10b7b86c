package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blessan-Alex/MalRag/ai"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ai.ProviderGemini, cfg.AI.Provider)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"missing ai", func(c *Config) { c.AI = nil }},
		{"bad provider", func(c *Config) { c.AI.Provider = "carrier-pigeon" }},
		{"missing db path", func(c *Config) { c.DBPath = "" }},
		{"missing upload dir", func(c *Config) { c.UploadDir = "" }},
		{"negative pool", func(c *Config) { c.PoolSize = -1 }},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = c.ChunkSize }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("in memory needs no path", func(t *testing.T) {
		cfg := Default()
		cfg.DBPath = ""
		cfg.InMemory = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestKeysFromEnv(t *testing.T) {
	t.Run("list takes precedence", func(t *testing.T) {
		t.Setenv(EnvAPIKeys, "key-one, key-two\nkey-three")
		t.Setenv(EnvGoogleKey, "google-key")
		assert.Equal(t, []string{"key-one", "key-two", "key-three"}, KeysFromEnv())
	})

	t.Run("google key fallback", func(t *testing.T) {
		t.Setenv(EnvAPIKeys, "  ")
		t.Setenv(EnvGoogleKey, "google-key")
		assert.Equal(t, []string{"google-key"}, KeysFromEnv())
	})

	t.Run("nothing set", func(t *testing.T) {
		t.Setenv(EnvAPIKeys, "")
		t.Setenv(EnvGoogleKey, "")
		assert.Empty(t, KeysFromEnv())
	})
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var text, js bytes.Buffer
	logger := SetupLoggerWithWriters(&text, &js, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("job complete", "job_id", "abc")

	assert.Contains(t, text.String(), "job complete")
	assert.NotContains(t, text.String(), "hidden")

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(js.String())), &record))
	assert.Equal(t, "job complete", record["msg"])
	assert.Equal(t, "abc", record["job_id"])
}

func TestSetupLogger(t *testing.T) {
	t.Run("stderr only", func(t *testing.T) {
		var text bytes.Buffer
		logger, cleanup := SetupLogger(&text, "", slog.LevelInfo)
		logger.Info("hello")
		assert.NoError(t, cleanup())
		assert.Contains(t, text.String(), "hello")
	})

	t.Run("with file", func(t *testing.T) {
		var text bytes.Buffer
		path := filepath.Join(t.TempDir(), "malrag.log")
		logger, cleanup := SetupLogger(&text, path, slog.LevelInfo)
		logger.Info("to both")
		require.NoError(t, cleanup())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"to both"`)
		assert.Contains(t, text.String(), "to both")
	})

	t.Run("unwritable file falls back", func(t *testing.T) {
		var text bytes.Buffer
		path := filepath.Join(t.TempDir(), "missing", "dir", "malrag.log")
		logger, cleanup := SetupLogger(&text, path, slog.LevelInfo)
		require.NotNil(t, logger)
		assert.NoError(t, cleanup())
		assert.Contains(t, text.String(), "failed to open log file")
	})
}
