package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const providerClient = "openai"

// Client is the go-openai backed inference provider.
// Works with any OpenAI-compatible API (OpenAI, Ollama, vLLM, Together, Groq, etc.).
type Client struct {
	api    *openai.Client
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a new inference client.
func NewClient(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	apiCfg.HTTPClient = hc

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		api:    openai.NewClientWithConfig(apiCfg),
		config: cfg,
		http:   hc,
		logger: logger.With("component", "inference.client"),
	}, nil
}

// Chat generates a chat completion.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	resp, err := c.createWithRetry(ctx, c.buildRequest(req))
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, WrapError(providerClient, ErrNoChoices)
	}
	choice := resp.Choices[0]

	c.logger.Debug("chat completion",
		"model", resp.Model,
		"finish_reason", choice.FinishReason,
		"tokens", resp.Usage.TotalTokens,
		"latency", time.Since(start),
	)

	return &ChatResponse{
		Message:      NewAssistantMessage(choice.Message.Content),
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model:     resp.Model,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Close releases resources.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// buildRequest converts a ChatRequest into the go-openai request type,
// filling in configured defaults.
func (c *Client) buildRequest(req *ChatRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	temp := req.Temperature
	if temp == 0 {
		temp = c.config.Temperature
	}

	out := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(temp),
	}
	if req.JSON {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return out
}

// createWithRetry issues the request, retrying rate limits and server
// errors up to MaxRetries times.
func (c *Client) createWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
		}

		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = convertError(err)
		var apiErr *APIError
		if !errors.As(lastErr, &apiErr) || !apiErr.IsRetryable() {
			return openai.ChatCompletionResponse{}, lastErr
		}
		c.logger.Warn("retrying request",
			"attempt", attempt+1,
			"status", apiErr.StatusCode,
		)
	}

	return openai.ChatCompletionResponse{}, lastErr
}

// convertError maps go-openai errors onto this package's error types.
func convertError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		return &APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Code:       code,
			Provider:   providerClient,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &APIError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    msg,
			Provider:   providerClient,
		}
	}

	return WrapError(providerClient, err)
}

// Verify Client implements Provider at compile time.
var _ Provider = (*Client)(nil)
