package variables

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Backends maps case-insensitive aliases to backend factories.
type Backends struct {
	mu      sync.RWMutex
	aliases map[string]Factory
}

// NewBackends creates an empty backend registry.
func NewBackends() *Backends {
	return &Backends{aliases: make(map[string]Factory)}
}

// Register adds a factory under one or more aliases. Nothing is registered
// if any alias is already taken.
func (b *Backends) Register(f Factory, aliases ...string) error {
	if f == nil {
		return fmt.Errorf("register backend: nil factory")
	}
	if len(aliases) == 0 {
		return fmt.Errorf("register backend: no aliases")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, len(aliases))
	for i, a := range aliases {
		key := strings.ToLower(strings.TrimSpace(a))
		if key == "" {
			return fmt.Errorf("register backend: empty alias")
		}
		if _, taken := b.aliases[key]; taken || slices.Contains(keys[:i], key) {
			return fmt.Errorf("register backend %q: %w", a, ErrDuplicateAlias)
		}
		keys[i] = key
	}
	for _, key := range keys {
		b.aliases[key] = f
	}
	return nil
}

// Lookup finds the factory for an alias, case-insensitively.
func (b *Backends) Lookup(alias string) (Factory, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	f, ok := b.aliases[strings.ToLower(strings.TrimSpace(alias))]
	return f, ok
}

// Aliases returns every registered alias, sorted.
func (b *Backends) Aliases() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.aliases))
	for a := range b.aliases {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}
