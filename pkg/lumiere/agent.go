package lumiere

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-lumiere/pkg/protocol"
	"github.com/teslashibe/go-lumiere/pkg/tts"
	"github.com/teslashibe/go-lumiere/pkg/vision"
)

// Spoken lines.
const (
	SayAwakening  = "Awakening. Hold on while I have a look."
	SayNoPhoto    = "Hmm, I couldn't see anything."
	SayNoVision   = "Sorry, my eyes aren't working right now."
	SayNoObjects  = "I didn't find any interesting objects."
	SayReady      = "We are ready!"
	SayNobodyHere = "I don't see anything to talk to yet."
	SayDistracted = "Sorry, I got distracted."
)

// eventQueueSize bounds pending utterances per session.
const eventQueueSize = 16

// Session is the wearable side of one user session.
type Session interface {
	Speak(ctx context.Context, text, voiceID string) error
	RequestPhoto(ctx context.Context) (*vision.Photo, error)
}

type heard struct {
	ctx  context.Context
	text string
}

// Agent drives one session. Events are handled one at a time by a single
// goroutine that owns the session's registry writes. A new wake trigger
// cancels the cycle in flight and is never dropped: pending triggers
// coalesce into one and run ahead of queued utterances.
type Agent struct {
	session   Session
	detector  vision.Detector
	personas  *PersonaGenerator
	responder *Responder
	registry  *Registry
	wakeWord  string
	logger    *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	events   chan heard
	wake     chan struct{}
	done     chan struct{}
	awakened atomic.Bool

	mu          sync.Mutex
	cancelCycle context.CancelFunc
	wakeCtx     context.Context
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithWakeWord overrides DefaultWakeWord. The word is matched against
// cleaned text.
func WithWakeWord(word string) AgentOption {
	return func(a *Agent) {
		if w := CleanText(word); w != "" {
			a.wakeWord = w
		}
	}
}

// WithVoices sets the voices assigned to detected objects.
func WithVoices(voices tts.VoiceRing) AgentOption {
	return func(a *Agent) { a.registry = NewRegistry(voices) }
}

// WithAgentLogger sets the structured logger.
func WithAgentLogger(l *slog.Logger) AgentOption {
	return func(a *Agent) { a.logger = l }
}

// NewAgent creates an agent for session and starts its event loop. Call
// Close when the session ends.
func NewAgent(session Session, detector vision.Detector, personas *PersonaGenerator, responder *Responder, opts ...AgentOption) *Agent {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Agent{
		session:   session,
		detector:  detector,
		personas:  personas,
		responder: responder,
		registry:  NewRegistry(nil),
		wakeWord:  DefaultWakeWord,
		logger:    slog.Default(),
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan heard, eventQueueSize),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "lumiere.agent")

	go a.run()
	return a
}

// Registry returns the session's object registry.
func (a *Agent) Registry() *Registry {
	return a.registry
}

// Awakened reports whether a wake trigger has been seen.
func (a *Agent) Awakened() bool {
	return a.awakened.Load()
}

// HandleTranscription routes a speech result. Interim results are ignored.
// It never blocks on the work it queues.
func (a *Agent) HandleTranscription(text string, isFinal bool) {
	if !isFinal {
		return
	}
	cleaned := CleanText(text)
	if cleaned == "" {
		return
	}

	if strings.Contains(cleaned, a.wakeWord) {
		a.logger.Info("wake word heard", "text", cleaned)
		a.Wake()
		return
	}
	if !a.awakened.Load() {
		return
	}
	a.enqueue(heard{ctx: a.ctx, text: cleaned})
}

// HandleButton routes a button press. Long presses wake the agent.
func (a *Agent) HandleButton(pressType string) {
	if pressType != protocol.PressLong {
		return
	}
	a.logger.Info("wake button pressed")
	a.Wake()
}

// Wake cancels any cycle in flight and schedules a new one.
func (a *Agent) Wake() {
	a.awakened.Store(true)

	a.mu.Lock()
	if a.cancelCycle != nil {
		a.cancelCycle()
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancelCycle = cancel
	a.wakeCtx = ctx
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Close stops the event loop and cancels work in flight.
func (a *Agent) Close() {
	a.cancel()
}

// Done is closed once the event loop has exited.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

func (a *Agent) enqueue(u heard) {
	if a.ctx.Err() != nil {
		return
	}
	select {
	case a.events <- u:
	default:
		a.logger.Warn("utterance queue full, dropping", "text", u.text)
	}
}

func (a *Agent) run() {
	defer close(a.done)
	for {
		// Wake triggers go first.
		select {
		case <-a.ctx.Done():
			return
		case <-a.wake:
			a.startCycle()
			continue
		default:
		}

		select {
		case <-a.ctx.Done():
			return
		case <-a.wake:
			a.startCycle()
		case u := <-a.events:
			a.respond(u.ctx, u.text)
		}
	}
}

// startCycle runs the most recent wake trigger.
func (a *Agent) startCycle() {
	a.mu.Lock()
	ctx := a.wakeCtx
	a.wakeCtx = nil
	a.mu.Unlock()
	if ctx != nil {
		a.cycle(ctx)
	}
}

// cycle resets the registry, looks around and gives every new object a
// persona. Writes from a superseded cycle never reach the registry.
func (a *Agent) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	gen := a.registry.Reset()
	a.say(ctx, SayAwakening, tts.NoVoice)

	photo, err := a.session.RequestPhoto(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		a.logger.Warn("photo failed", "error", err)
		a.say(ctx, SayNoPhoto, tts.NoVoice)
		return
	}

	labels, err := a.detector.Detect(ctx, photo.DataURI())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		a.logger.Warn("detection failed", "error", err)
		a.say(ctx, SayNoVision, tts.NoVoice)
		return
	}
	a.logger.Info("objects detected", "labels", labels)

	for _, label := range labels {
		if ctx.Err() != nil {
			return
		}
		if a.registry.Has(label) {
			continue
		}

		persona, err := a.personas.Generate(ctx, label)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.logger.Warn("persona failed", "label", label, "error", err)
			persona = ""
		}
		if e, ok := a.registry.Register(gen, label, persona); ok {
			a.logger.Debug("object registered", "label", e.Label, "voice_id", e.VoiceID)
		}
	}

	if ctx.Err() != nil {
		return
	}
	if len(labels) == 0 {
		a.say(ctx, SayNoObjects, tts.NoVoice)
		return
	}
	a.say(ctx, SayReady, tts.NoVoice)
}

// respond answers an utterance as the addressed object.
func (a *Agent) respond(ctx context.Context, text string) {
	entries := a.registry.Entries()
	if len(entries) == 0 {
		a.say(ctx, SayNobodyHere, tts.NoVoice)
		return
	}

	reply, err := a.responder.Respond(ctx, entries, text)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		a.logger.Warn("response failed", "error", err)
		a.say(ctx, SayDistracted, tts.NoVoice)
		return
	}
	if reply.Text == "" {
		a.logger.Warn("empty reply", "object", reply.Object, "kind", reply.Kind)
		a.say(ctx, SayDistracted, tts.NoVoice)
		return
	}

	voice := VoiceFor(a.registry, *reply)
	a.logger.Info("object speaks", "object", reply.Object, "kind", reply.Kind, "voice_id", voice)
	a.say(ctx, reply.Text, voice)
}

func (a *Agent) say(ctx context.Context, text, voiceID string) {
	if err := a.session.Speak(ctx, text, voiceID); err != nil {
		a.logger.Warn("speak failed", "text", text, "error", err)
	}
}

// CleanText lowercases text, strips sentence punctuation and trims it.
func CleanText(text string) string {
	text = strings.ToLower(text)
	text = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', ';', ':':
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}
