// Package inference provides a small interface over chat-completion
// language models.
//
// Persona generation and the in-character replies both go through the
// Provider interface, so any OpenAI-compatible endpoint (OpenAI, Ollama,
// vLLM, Together, ...) can back them.
//
// Example usage:
//
//	client, _ := inference.NewClient(
//	    inference.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    inference.WithModel("gpt-4o-mini"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Chat(ctx, &inference.ChatRequest{
//	    Messages: []inference.Message{
//	        inference.NewUserMessage("Hello!"),
//	    },
//	})
package inference

import "context"

// Provider is the inference interface used by lumiere.
type Provider interface {
	// Chat generates a response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Close releases any resources held by the provider.
	Close() error
}

// ChatRequest for chat completions.
type ChatRequest struct {
	// Messages is the conversation history.
	Messages []Message

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0).
	Temperature float64

	// JSON asks the model to answer with a single JSON object.
	JSON bool
}

// ChatResponse from chat completion.
type ChatResponse struct {
	// Message is the assistant's response.
	Message Message

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
