package lumiere

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-lumiere/internal/log"
	"github.com/teslashibe/go-lumiere/pkg/inference"
	"github.com/teslashibe/go-lumiere/pkg/tts"
	"github.com/teslashibe/go-lumiere/pkg/vision"
)

type spoken struct {
	Text    string
	VoiceID string
}

// fakeSession records speech and answers photo requests.
type fakeSession struct {
	mu        sync.Mutex
	spoken    []spoken
	said      chan spoken
	photoFunc func(ctx context.Context) (*vision.Photo, error)
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		said: make(chan spoken, 64),
		photoFunc: func(context.Context) (*vision.Photo, error) {
			return &vision.Photo{Data: []byte("jpeg"), MimeType: "image/jpeg"}, nil
		},
	}
}

func (s *fakeSession) Speak(_ context.Context, text, voiceID string) error {
	sp := spoken{Text: text, VoiceID: voiceID}
	s.mu.Lock()
	s.spoken = append(s.spoken, sp)
	s.mu.Unlock()
	s.said <- sp
	return nil
}

func (s *fakeSession) RequestPhoto(ctx context.Context) (*vision.Photo, error) {
	return s.photoFunc(ctx)
}

// expectSay waits for the next utterance and checks its text.
func (s *fakeSession) expectSay(t *testing.T, text string) spoken {
	t.Helper()
	select {
	case sp := <-s.said:
		require.Equal(t, text, sp.Text)
		return sp
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", text)
		return spoken{}
	}
}

// expectQuiet checks nothing more is spoken for a short while.
func (s *fakeSession) expectQuiet(t *testing.T) {
	t.Helper()
	select {
	case sp := <-s.said:
		t.Fatalf("unexpected utterance %q", sp.Text)
	case <-time.After(50 * time.Millisecond):
	}
}

// fakeDetector returns scripted labels, one script entry per call.
type fakeDetector struct {
	mu     sync.Mutex
	calls  int
	images []string
	detect func(call int) ([]string, error)
}

func labels(text string) func(int) ([]string, error) {
	return func(int) ([]string, error) { return vision.ParseLabels(text), nil }
}

func (d *fakeDetector) Detect(_ context.Context, image string) ([]string, error) {
	d.mu.Lock()
	d.calls++
	call := d.calls
	d.images = append(d.images, image)
	d.mu.Unlock()
	return d.detect(call)
}

// chatScript routes mock chat requests to persona or responder handlers.
type chatScript struct {
	persona func(ctx context.Context, label string) (string, error)
	respond func(ctx context.Context, req *inference.ChatRequest) (string, error)
}

func (c chatScript) mock() *inference.Mock {
	return &inference.Mock{
		ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
			var (
				content string
				err     error
			)
			if req.Messages[0].Content == personaSystemPrompt {
				label := labelFromPersonaPrompt(req.Messages[1].Content)
				if c.persona == nil {
					content = "A cheerful " + label
				} else {
					content, err = c.persona(ctx, label)
				}
			} else {
				if c.respond == nil {
					return nil, inference.ErrProviderUnavailable
				}
				content, err = c.respond(ctx, req)
			}
			if err != nil {
				return nil, err
			}
			return &inference.ChatResponse{Message: inference.NewAssistantMessage(content)}, nil
		},
	}
}

func labelFromPersonaPrompt(prompt string) string {
	start := strings.Index(prompt, `"`)
	end := strings.Index(prompt[start+1:], `"`)
	return prompt[start+1 : start+1+end]
}

var testVoices = tts.VoiceRing{"voice-a", "voice-b", "voice-c"}

func newTestAgent(t *testing.T, session Session, detector vision.Detector, provider inference.Provider, opts ...AgentOption) *Agent {
	t.Helper()
	logger := log.Discard()
	opts = append([]AgentOption{WithVoices(testVoices), WithAgentLogger(logger)}, opts...)
	agent := NewAgent(session, detector,
		NewPersonaGenerator(provider, "", logger),
		NewResponder(provider, "", nil, logger),
		opts...,
	)
	t.Cleanup(func() {
		agent.Close()
		<-agent.Done()
	})
	return agent
}
