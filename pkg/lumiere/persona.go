package lumiere

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-lumiere/pkg/inference"
)

const personaSystemPrompt = "You create fun, eccentric, and short personas for everyday objects, similar to Lumiere and Mrs. Potts from Beauty and the Beast."

// Persona request tuning.
const (
	personaMaxTokens   = 50
	personaTemperature = 0.9
)

// PersonaGenerator writes a short character description for an object.
type PersonaGenerator struct {
	provider inference.Provider
	model    string
	logger   *slog.Logger
}

// NewPersonaGenerator creates a generator using provider. An empty model
// uses the provider default.
func NewPersonaGenerator(provider inference.Provider, model string, logger *slog.Logger) *PersonaGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersonaGenerator{
		provider: provider,
		model:    model,
		logger:   logger.With("component", "lumiere.persona"),
	}
}

// Generate returns a persona for label.
func (g *PersonaGenerator) Generate(ctx context.Context, label string) (string, error) {
	resp, err := g.provider.Chat(ctx, &inference.ChatRequest{
		Model: g.model,
		Messages: []inference.Message{
			inference.NewSystemMessage(personaSystemPrompt),
			inference.NewUserMessage(personaPrompt(label)),
		},
		MaxTokens:   personaMaxTokens,
		Temperature: personaTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("persona for %q: %w", label, err)
	}

	persona := strings.TrimSpace(resp.Message.Content)
	g.logger.Debug("persona generated", "label", label, "persona", persona)
	return persona, nil
}

func personaPrompt(label string) string {
	return fmt.Sprintf(`Give me a persona for a "%s" and detail the tone in which the object would speak (ex. shakespearean, hip/hop/modern style, etc).`, label)
}
