// Package config loads lumiere settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teslashibe/go-lumiere/pkg/lumiere"
	"github.com/teslashibe/go-lumiere/pkg/runway"
	"github.com/teslashibe/go-lumiere/pkg/tts"
)

// Environment variable names.
const (
	EnvPackageName   = "PACKAGE_NAME"
	EnvPlatformKey   = "MENTRAOS_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvOpenAIModel   = "OPENAI_MODEL"
	EnvWorkflowURL   = "ROBOFLOW_WORKFLOW_URL"
	EnvWorkflowKey   = "ROBOFLOW_API_KEY"
	EnvVoiceIDs      = "ELEVENLABS_VOICE_IDS"
	EnvPort          = "PORT"
	EnvWakeWord      = "WAKE_WORD"
	EnvLogLevel      = "LOG_LEVEL"
	EnvRunwaySecret  = "RUNWAYML_API_SECRET"
	EnvRunwayKey     = "RUNWAY_API_KEY"
	EnvRunwayBaseURL = "RUNWAY_BASE_URL"
)

// DefaultLogLevel is used when LOG_LEVEL is unset.
const DefaultLogLevel = "info"

// LoadDotEnv loads variables from files (".env" when none are given)
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// newViper returns a viper instance reading the process environment with
// lumiere defaults.
func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	defaults := lumiere.DefaultConfig()
	v.SetDefault(EnvPort, defaults.Port)
	v.SetDefault(EnvWakeWord, defaults.WakeWord)
	v.SetDefault(EnvOpenAIModel, defaults.OpenAIModel)
	v.SetDefault(EnvLogLevel, DefaultLogLevel)
	v.SetDefault(EnvRunwayBaseURL, runway.DefaultBaseURL)
	return v
}

func getString(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

// LoadServe reads the server configuration and validates it.
func LoadServe() (lumiere.Config, error) {
	v := newViper()

	cfg := lumiere.DefaultConfig()
	cfg.PackageName = getString(v, EnvPackageName)
	cfg.PlatformAPIKey = getString(v, EnvPlatformKey)
	cfg.OpenAIKey = getString(v, EnvOpenAIKey)
	cfg.OpenAIBaseURL = getString(v, EnvOpenAIBaseURL)
	cfg.OpenAIModel = getString(v, EnvOpenAIModel)
	cfg.WorkflowURL = getString(v, EnvWorkflowURL)
	cfg.WorkflowKey = getString(v, EnvWorkflowKey)
	cfg.Voices = tts.ParseVoiceList(v.GetString(EnvVoiceIDs))
	cfg.Port = v.GetInt(EnvPort)
	cfg.WakeWord = getString(v, EnvWakeWord)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Runway holds the video generation credentials.
type Runway struct {
	APIKey  string
	BaseURL string
}

// LoadRunway reads the video generation settings. RUNWAYML_API_SECRET wins
// over RUNWAY_API_KEY when both are set.
func LoadRunway() (Runway, error) {
	v := newViper()

	key := getString(v, EnvRunwaySecret)
	if key == "" {
		key = getString(v, EnvRunwayKey)
	}
	cfg := Runway{
		APIKey:  key,
		BaseURL: getString(v, EnvRunwayBaseURL),
	}
	if cfg.APIKey == "" {
		return cfg, &lumiere.ConfigError{
			Field:   "APIKey",
			Message: EnvRunwaySecret + " or " + EnvRunwayKey + " environment variable is required",
		}
	}
	return cfg, nil
}

// LogLevel returns the configured log level.
func LogLevel() string {
	return getString(newViper(), EnvLogLevel)
}
