package inference

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds provider configuration.
type Config struct {
	// Connection
	BaseURL    string // API base URL
	APIKey     string
	HTTPClient *http.Client

	// Model is the default chat model.
	Model string

	// Request defaults
	MaxTokens   int
	Temperature float64

	Timeout time.Duration

	// Retry configuration. Zero retries by default: a failed call fails
	// the step that issued it.
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithBaseURL sets the API base URL.
// Examples: "https://api.openai.com/v1", "http://localhost:11434/v1"
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithModel sets the default chat model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithMaxTokens sets the default max tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTemperature sets the default temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry configures retry behavior for rate limits and server errors.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults for OpenAI.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		MaxTokens:   256,
		Temperature: 0.7,
		Timeout:     30 * time.Second,
		RetryDelay:  500 * time.Millisecond,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Model == "" {
		return ErrNoModel
	}
	// API key is optional for local providers like Ollama
	return nil
}
