// Package tts holds voice catalog helpers for the speech output of the
// wearable platform. Synthesis itself happens on the platform; lumiere only
// decides which voice each object speaks with.
package tts

import "strings"

// ElevenLabsVoices maps friendly preset names to ElevenLabs voice IDs.
// Use ResolveElevenLabsVoice to look up a voice by name or pass through raw IDs.
var ElevenLabsVoices = map[string]string{
	"charlotte": "XB0fDUnXU5powFXDhCwa", // British female, warm
	"aria":      "9BWtsMINqrJLrRacOk9x", // American female, expressive
	"sarah":     "EXAVITQu4vr4xnSDxMaL", // American female, soft
	"lily":      "pFZP5JQG7iQjIQuC4Bku", // British female, warm
	"rachel":    "21m00Tcm4TlvDq8ikWAM", // American female, calm
	"domi":      "AZnzlk1XvdvUeBnXmlld", // American female, strong
	"elli":      "MF3mGyEYCl7XYWbV9V6O", // American female, young
	"josh":      "TxGEqnHWrfWFTfGW9XjX", // American male, deep
	"adam":      "pNInz6obpgDQGcFmaJgB", // American male, deep
	"sam":       "yoZ06aMxZJJ28mfd3POQ", // American male, raspy
}

// NoVoice is assigned when no voices are configured. The platform falls
// back to its default voice.
const NoVoice = ""

// ResolveElevenLabsVoice returns the voice ID for a preset name,
// or the input unchanged if it's already a voice ID.
func ResolveElevenLabsVoice(name string) string {
	if id, ok := ElevenLabsVoices[strings.ToLower(name)]; ok {
		return id
	}
	return name
}

// VoiceRing is an ordered voice list handed out round-robin.
type VoiceRing []string

// ParseVoiceList splits a comma-separated list, trims entries, drops empty
// ones and resolves preset names.
func ParseVoiceList(raw string) VoiceRing {
	var ring VoiceRing
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ring = append(ring, ResolveElevenLabsVoice(part))
	}
	return ring
}

// At returns the voice for cursor position i, wrapping around the list.
// An empty ring yields NoVoice.
func (r VoiceRing) At(i int) string {
	if len(r) == 0 {
		return NoVoice
	}
	if i < 0 {
		i = -i
	}
	return r[i%len(r)]
}

// Len returns the number of configured voices.
func (r VoiceRing) Len() int {
	return len(r)
}
