package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"GEMINI_API_KEY", "METORIAL_BASE_URL", "METORIAL_API_KEY", "MCP_GCALENDAR_ID"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"gemini_api_key": "file-key",
		"metorial_base_url": "https://api.metorial.example.com",
		"metorial_api_key": "met-key",
		"deployment_ids": {"gcalendar": "dep-1"},
		"auth_wait_seconds": 120
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.GeminiAPIKey)
	assert.Equal(t, "dep-1", cfg.DeploymentIDs["gcalendar"])
	assert.Equal(t, 120, cfg.AuthWaitSeconds)
	assert.True(t, cfg.BrokerConfigured())
}

func TestLoadEnvFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("MCP_GCALENDAR_ID", "dep-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.GeminiAPIKey)
	assert.Equal(t, "dep-env", cfg.DeploymentIDs["gcalendar"])
	assert.False(t, cfg.BrokerConfigured(), "broker needs base URL and API key too")
}

func TestLoadFilePrecedesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-key")
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gemini_api_key": "file-key"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.GeminiAPIKey)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{GeminiAPIKey: "k"}, false},
		{"missing API key", Config{}, true},
		{"negative wait", Config{GeminiAPIKey: "k", AuthWaitSeconds: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
