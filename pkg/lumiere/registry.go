package lumiere

import (
	"sync"

	"github.com/teslashibe/go-lumiere/pkg/tts"
)

// Entry is one detected object with its persona and voice.
type Entry struct {
	Label   string `json:"label"`
	Persona string `json:"persona"`
	VoiceID string `json:"voice_id"`
}

// Registry holds the objects detected during the current wake cycle of one
// session. Every Reset starts a new generation; writes tagged with an older
// generation are dropped.
type Registry struct {
	voices tts.VoiceRing

	mu         sync.RWMutex
	generation uint64
	cursor     int
	order      []string
	entries    map[string]Entry
}

// NewRegistry creates an empty registry assigning voices from voices.
func NewRegistry(voices tts.VoiceRing) *Registry {
	return &Registry{
		voices:  voices,
		entries: make(map[string]Entry),
	}
}

// Reset clears all entries and the voice cursor together and returns the
// new generation.
func (r *Registry) Reset() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.cursor = 0
	r.order = nil
	r.entries = make(map[string]Entry)
	return r.generation
}

// Snapshot is a consistent view of the registry.
type Snapshot struct {
	Generation uint64  `json:"generation"`
	Entries    []Entry `json:"entries"`
}

// Snapshot returns the current generation and its entries in first-seen
// order.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{Generation: r.generation, Entries: r.entriesLocked()}
}

// Has reports whether label is registered.
func (r *Registry) Has(label string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[label]
	return ok
}

// Register adds label with persona, assigning it the next voice. It returns
// false without touching the registry when gen is stale or label is known.
func (r *Registry) Register(gen uint64, label, persona string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		return Entry{}, false
	}
	if _, ok := r.entries[label]; ok {
		return Entry{}, false
	}

	e := Entry{
		Label:   label,
		Persona: persona,
		VoiceID: r.voices.At(r.cursor),
	}
	r.cursor++
	r.order = append(r.order, label)
	r.entries[label] = e
	return e, true
}

// Lookup returns the entry for label.
func (r *Registry) Lookup(label string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[label]
	return e, ok
}

// First returns the earliest registered entry.
func (r *Registry) First() (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return Entry{}, false
	}
	return r.entries[r.order[0]], true
}

// Entries returns all entries in first-seen order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entriesLocked()
}

func (r *Registry) entriesLocked() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, label := range r.order {
		out = append(out, r.entries[label])
	}
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
