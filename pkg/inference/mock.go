package inference

import (
	"context"
	"sync"
	"time"
)

// Mock implements Provider for testing.
type Mock struct {
	// ChatFunc is called when Chat is invoked.
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu       sync.Mutex
	calls    []MockCall
	requests []*ChatRequest
}

// MockCall records a method invocation.
type MockCall struct {
	Method string
	Time   time.Time
}

// NewMock creates a new mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return &ChatResponse{
				Message:      NewAssistantMessage("Mock response"),
				FinishReason: "stop",
				Usage:        Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			}, nil
		},
	}
}

// Reply returns a mock whose Chat always answers with content.
func Reply(content string) *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return &ChatResponse{
				Message:      NewAssistantMessage(content),
				FinishReason: "stop",
			}, nil
		},
	}
}

// WithError returns a mock that always returns the given error.
func WithError(err error) *Mock {
	return &Mock{
		ChatFunc: func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
			return nil, err
		},
	}
}

// Chat calls ChatFunc and records the call.
func (m *Mock) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.record("Chat")
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// record adds a call to the tracking list.
func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method: method,
		Time:   time.Now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// Requests returns every ChatRequest passed to Chat.
func (m *Mock) Requests() []*ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*ChatRequest, len(m.requests))
	copy(result, m.requests)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.requests = nil
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
