package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-lumiere/pkg/lumiere"
	"github.com/teslashibe/go-lumiere/pkg/runway"
	"github.com/teslashibe/go-lumiere/pkg/tts"
)

var allKeys = []string{
	EnvPackageName, EnvPlatformKey, EnvOpenAIKey, EnvOpenAIBaseURL, EnvOpenAIModel,
	EnvWorkflowURL, EnvWorkflowKey, EnvVoiceIDs, EnvPort, EnvWakeWord, EnvLogLevel,
	EnvRunwaySecret, EnvRunwayKey, EnvRunwayBaseURL,
}

// clearEnv blanks every lumiere variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(EnvPackageName, "com.example.lumiere")
	t.Setenv(EnvPlatformKey, "platform-key")
	t.Setenv(EnvOpenAIKey, "sk-test")
	t.Setenv(EnvWorkflowURL, "https://detect.example.com/workflow")
	t.Setenv(EnvWorkflowKey, "rf-key")
}

func TestLoadServeDefaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := LoadServe()
	require.NoError(t, err)

	assert.Equal(t, "com.example.lumiere", cfg.PackageName)
	assert.Equal(t, lumiere.DefaultPort, cfg.Port)
	assert.Equal(t, lumiere.DefaultWakeWord, cfg.WakeWord)
	assert.Equal(t, lumiere.DefaultChatModel, cfg.OpenAIModel)
	assert.Zero(t, cfg.Voices.Len())
	assert.Equal(t, DefaultLogLevel, LogLevel())
}

func TestLoadServeOverrides(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv(EnvPort, "8080")
	t.Setenv(EnvVoiceIDs, "charlotte, custom-id ,,")
	t.Setenv(EnvOpenAIModel, "gpt-4o")
	t.Setenv(EnvOpenAIBaseURL, "http://localhost:11434/v1")
	t.Setenv(EnvWakeWord, "wake up")

	cfg, err := LoadServe()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, tts.VoiceRing{tts.ResolveElevenLabsVoice("charlotte"), "custom-id"}, cfg.Voices)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, "http://localhost:11434/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "wake up", cfg.WakeWord)
}

func TestLoadServeMissingRequired(t *testing.T) {
	for _, key := range []string{EnvPackageName, EnvPlatformKey, EnvOpenAIKey, EnvWorkflowURL, EnvWorkflowKey} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			os.Unsetenv(key)

			_, err := LoadServe()
			var cerr *lumiere.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, cerr.Message, key)
		})
	}
}

func TestLoadServeBadPort(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv(EnvPort, "not-a-port")

	_, err := LoadServe()
	var cerr *lumiere.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Port", cerr.Field)
}

func TestLoadRunway(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantKey string
		wantErr bool
	}{
		{"secret", map[string]string{EnvRunwaySecret: "secret"}, "secret", false},
		{"api key", map[string]string{EnvRunwayKey: "key"}, "key", false},
		{"secret wins", map[string]string{EnvRunwaySecret: "secret", EnvRunwayKey: "key"}, "secret", false},
		{"missing", map[string]string{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadRunway()
			if tt.wantErr {
				var cerr *lumiere.ConfigError
				require.ErrorAs(t, err, &cerr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, cfg.APIKey)
			assert.Equal(t, runway.DefaultBaseURL, cfg.BaseURL)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPackageName, "from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RUNWAY_API_KEY=from-file\nPACKAGE_NAME=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv(EnvRunwayKey) })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(EnvRunwayKey))
	assert.Equal(t, "from-env", os.Getenv(EnvPackageName), "existing variables are not overridden")
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
