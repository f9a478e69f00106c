// Package lumiere makes the objects around a wearable's wearer talk: on a
// wake trigger it photographs the scene, detects objects, gives each one a
// persona and voice, then answers later speech in the addressed object's
// character.
package lumiere

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-lumiere/pkg/tts"
	"github.com/teslashibe/go-lumiere/pkg/wearable"
)

// Default configuration values.
const (
	DefaultPort      = 3000
	DefaultWakeWord  = "awaken"
	DefaultChatModel = "gpt-4o-mini"
)

// Config holds all configuration for the lumiere server.
// Environment loading lives in internal/config; this struct is data only.
type Config struct {
	// Debug enables verbose logging and request logs.
	Debug bool

	// Port is the HTTP listen port.
	Port int

	// WakeWord starts a detection cycle when heard in final speech.
	WakeWord string

	// Platform identity and credentials.
	PackageName    string
	PlatformAPIKey string

	// Language model.
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	// Object detection workflow.
	WorkflowURL string
	WorkflowKey string

	// Voices are assigned to objects in order, wrapping around.
	Voices tts.VoiceRing

	// PhotoTimeout bounds each camera request.
	PhotoTimeout time.Duration
}

// DefaultConfig returns sensible defaults for lumiere configuration.
func DefaultConfig() Config {
	return Config{
		Port:         DefaultPort,
		WakeWord:     DefaultWakeWord,
		OpenAIModel:  DefaultChatModel,
		PhotoTimeout: wearable.DefaultPhotoTimeout,
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	required := []struct {
		field, env, value string
	}{
		{"PackageName", "PACKAGE_NAME", c.PackageName},
		{"PlatformAPIKey", "MENTRAOS_API_KEY", c.PlatformAPIKey},
		{"OpenAIKey", "OPENAI_API_KEY", c.OpenAIKey},
		{"WorkflowURL", "ROBOFLOW_WORKFLOW_URL", c.WorkflowURL},
		{"WorkflowKey", "ROBOFLOW_API_KEY", c.WorkflowKey},
	}
	for _, r := range required {
		if r.value == "" {
			return &ConfigError{Field: r.field, Message: r.env + " environment variable is required"}
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigError{Field: "Port", Message: fmt.Sprintf("PORT must be between 1 and 65535, got %d", c.Port)}
	}
	if c.WakeWord == "" {
		return &ConfigError{Field: "WakeWord", Message: "wake word must not be empty"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
