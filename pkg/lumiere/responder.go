package lumiere

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-lumiere/pkg/inference"
)

// Responder request tuning.
const (
	responderMaxTokens   = 150
	responderTemperature = 0.8
)

// Responder picks the addressed object and answers in its persona.
type Responder struct {
	provider inference.Provider
	model    string
	language LanguageDetector
	logger   *slog.Logger
}

// NewResponder creates a responder. language may be nil to always answer
// in the model's default language.
func NewResponder(provider inference.Provider, model string, language LanguageDetector, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		provider: provider,
		model:    model,
		language: language,
		logger:   logger.With("component", "lumiere.responder"),
	}
}

// Respond asks the model which of entries the utterance addresses and how
// it answers. entries must not be empty.
func (r *Responder) Respond(ctx context.Context, entries []Entry, utterance string) (*Reply, error) {
	system := responderPrompt(entries)
	if lang, ok := r.detectLanguage(utterance); ok {
		system += fmt.Sprintf("\nThe user is speaking %s; the object must answer in %s.", lang, lang)
	}

	resp, err := r.provider.Chat(ctx, &inference.ChatRequest{
		Model: r.model,
		Messages: []inference.Message{
			inference.NewSystemMessage(system),
			inference.NewUserMessage(utterance),
		},
		MaxTokens:   responderMaxTokens,
		Temperature: responderTemperature,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("respond: %w", err)
	}

	reply := ParseReply(resp.Message.Content)
	r.logger.Debug("reply parsed", "kind", reply.Kind, "object", reply.Object)
	return &reply, nil
}

func (r *Responder) detectLanguage(text string) (string, bool) {
	if r.language == nil {
		return "", false
	}
	lang, ok := r.language.Detect(text)
	if !ok || strings.EqualFold(lang, "english") {
		return "", false
	}
	return lang, true
}

// VoiceFor resolves the voice for a reply: the chosen object's voice when
// it is registered, else the first registered entry's voice.
func VoiceFor(reg *Registry, reply Reply) string {
	if reply.Object != "" {
		if e, ok := reg.Lookup(reply.Object); ok {
			return e.VoiceID
		}
	}
	if e, ok := reg.First(); ok {
		return e.VoiceID
	}
	return ""
}

func responderPrompt(entries []Entry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Label + ": " + e.Persona
	}

	var b strings.Builder
	b.WriteString("You are Lumiere, an assistant that makes objects talk.\n")
	b.WriteString("Here is the list of objects you can embody with their personas:\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nWhen the user speaks, pick the single most likely object they are addressing and respond as that object in first person, staying in character. ")
	b.WriteString(`Return your answer STRICTLY as JSON: {"object":"<object name>", "response":"<what the object says>"}`)
	return b.String()
}
