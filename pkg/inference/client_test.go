package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func chatHandler(t *testing.T, content string, check func(body map[string]interface{})) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Expected Bearer test-key, got %s", auth)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(body)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "test-id",
			"model": "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{
				"prompt_tokens":     10,
				"completion_tokens": 5,
				"total_tokens":      15,
			},
		})
	}
}

func TestClientChat(t *testing.T) {
	server := httptest.NewServer(chatHandler(t, "Hello! How can I help?", func(body map[string]interface{}) {
		if body["model"] != "gpt-4o-mini" {
			t.Errorf("Expected model gpt-4o-mini, got %v", body["model"])
		}
		if body["max_tokens"] != float64(50) {
			t.Errorf("Expected max_tokens 50, got %v", body["max_tokens"])
		}
		if _, ok := body["response_format"]; ok {
			t.Error("Did not expect response_format for plain chat")
		}
	}))
	defer server.Close()

	client, err := NewClient(
		WithBaseURL(server.URL),
		WithAPIKey("test-key"),
		WithModel("gpt-4o-mini"),
	)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	resp, err := client.Chat(context.Background(), &ChatRequest{
		Messages:  []Message{NewUserMessage("Hello")},
		MaxTokens: 50,
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if resp.Message.Content != "Hello! How can I help?" {
		t.Errorf("Unexpected content: %s", resp.Message.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish_reason 'stop', got %s", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("Expected 15 tokens, got %d", resp.Usage.TotalTokens)
	}
}

func TestClientChatJSONMode(t *testing.T) {
	server := httptest.NewServer(chatHandler(t, `{"object":"lamp","response":"hi"}`, func(body map[string]interface{}) {
		rf, ok := body["response_format"].(map[string]interface{})
		if !ok {
			t.Fatalf("Expected response_format in request, got %v", body["response_format"])
		}
		if rf["type"] != "json_object" {
			t.Errorf("Expected json_object, got %v", rf["type"])
		}
	}))
	defer server.Close()

	client, _ := NewClient(WithBaseURL(server.URL), WithAPIKey("test-key"))
	defer client.Close()

	resp, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewUserMessage("hey lamp")},
		JSON:     true,
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message.Content != `{"object":"lamp","response":"hi"}` {
		t.Errorf("Unexpected content: %s", resp.Message.Content)
	}
}

func TestClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"message": "Incorrect API key provided",
				"type":    "invalid_request_error",
				"code":    "invalid_api_key",
			},
		})
	}))
	defer server.Close()

	client, _ := NewClient(WithBaseURL(server.URL), WithAPIKey("test-key"))
	defer client.Close()

	_, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewUserMessage("Hello")},
	})
	if err == nil {
		t.Fatal("Expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T: %v", err, err)
	}
	if !apiErr.IsUnauthorized() {
		t.Errorf("Expected 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Incorrect API key provided" {
		t.Errorf("Unexpected message: %s", apiErr.Message)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	ok := chatHandler(t, "finally", nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		ok(w, r)
	}))
	defer server.Close()

	client, _ := NewClient(
		WithBaseURL(server.URL),
		WithAPIKey("test-key"),
		WithRetry(1, time.Millisecond),
	)
	defer client.Close()

	resp, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewUserMessage("Hello")},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Message.Content != "finally" {
		t.Errorf("Unexpected content: %s", resp.Message.Content)
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestClientNoRetryByDefault(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer server.Close()

	client, _ := NewClient(WithBaseURL(server.URL), WithAPIKey("test-key"))
	defer client.Close()

	if _, err := client.Chat(context.Background(), &ChatRequest{}); err == nil {
		t.Fatal("Expected error")
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestNewClientRequiresModel(t *testing.T) {
	_, err := NewClient(WithModel(""))
	if !errors.Is(err, ErrNoModel) {
		t.Errorf("Expected ErrNoModel, got %v", err)
	}
}
