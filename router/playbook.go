package router

import (
	"sort"
	"sync"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/logging"
)

// Playbook is a named routing recipe: a strategy and an ordered provider list.
type Playbook struct {
	ID          string
	Name        string
	Description string
	Strategy    core.RoutingStrategy
	Providers   []core.ProviderKind
	Enabled     bool
}

// Validate checks the playbook is usable for routing.
func (p Playbook) Validate() error {
	if p.ID == "" {
		return core.NewValidationError("playbook id is required", nil)
	}
	if len(p.Providers) == 0 {
		return core.NewValidationError("playbook "+p.ID+" has no providers", map[string]any{"playbook": p.ID})
	}
	if _, err := core.ParseRoutingStrategy(string(p.Strategy)); err != nil {
		return err
	}
	for _, kind := range p.Providers {
		if _, err := core.ParseProviderKind(string(kind)); err != nil {
			return err
		}
	}
	return nil
}

func (p Playbook) clone() Playbook {
	p.Providers = append([]core.ProviderKind(nil), p.Providers...)
	return p
}

// DefaultPlaybooks returns the built-in playbooks.
func DefaultPlaybooks() []Playbook {
	return []Playbook{
		{
			ID:          "launch-readiness",
			Name:        "Launch readiness",
			Description: "ChatGPT → Claude → Gemini",
			Strategy:    core.StrategyFallback,
			Providers:   []core.ProviderKind{core.ProviderChatGPT, core.ProviderClaude, core.ProviderGemini},
			Enabled:     true,
		},
	}
}

// Playbooks is a concurrency-safe book of playbooks keyed by id.
type Playbooks struct {
	mu     sync.RWMutex
	book   map[string]Playbook
	logger logging.Logger
}

// NewPlaybooks creates a book holding the given playbooks. Entries failing
// Validate are logged and skipped.
func NewPlaybooks(logger logging.Logger, initial ...Playbook) *Playbooks {
	b := &Playbooks{book: make(map[string]Playbook), logger: logging.OrNoOp(logger)}
	for _, p := range initial {
		if err := p.Validate(); err != nil {
			b.logger.Warn("skipping invalid routing playbook", "id", p.ID, "error", err)
			continue
		}
		b.book[p.ID] = p.clone()
	}
	return b
}

// Register adds or replaces a playbook.
func (b *Playbooks) Register(p Playbook) error {
	if err := p.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	b.book[p.ID] = p.clone()
	b.mu.Unlock()

	b.logger.Info("registered routing playbook", "playbook", p.Name, "id", p.ID)
	return nil
}

// Get returns the playbook with id.
func (b *Playbooks) Get(id string) (Playbook, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.book[id]
	if !ok {
		return Playbook{}, false
	}
	return p.clone(), true
}

// Resolve returns an enabled playbook or a ValidationError.
func (b *Playbooks) Resolve(id string) (Playbook, error) {
	p, ok := b.Get(id)
	if !ok {
		return Playbook{}, core.NewValidationError("Unknown playbook: "+id, map[string]any{"playbook": id})
	}
	if !p.Enabled {
		return Playbook{}, core.NewValidationError("Playbook disabled: "+id, map[string]any{"playbook": id})
	}
	return p, nil
}

// List returns every playbook sorted by id.
func (b *Playbooks) List() []Playbook {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Playbook, 0, len(b.book))
	for _, p := range b.book {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Remove deletes a playbook, reporting whether it existed.
func (b *Playbooks) Remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.book[id]; !ok {
		return false
	}
	delete(b.book, id)
	return true
}
