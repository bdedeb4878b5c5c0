package policy

import (
	"fmt"
	"sync"
)

// Store is the scope-to-config registry (scope is typically a
// repository name). Reads are the per-decision hot path; writes are
// rare administrative operations, so a plain RWMutex suffices.
type Store struct {
	mu     sync.RWMutex
	def    Config
	scopes map[string]Config
}

// NewStore builds a registry around a validated default config.
func NewStore(def Config) (*Store, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("default policy: %w", err)
	}
	return &Store{def: def, scopes: map[string]Config{}}, nil
}

// Get returns the config bound to scope, falling back to the default
// when no scope-specific config exists.
func (s *Store) Get(scope string) Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cfg, ok := s.scopes[scope]; ok {
		return cfg
	}
	return s.def
}

// Set binds a config to a scope. Malformed configs are rejected here,
// at configuration time, never at decision time.
func (s *Store) Set(scope string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("policy for %q: %w", scope, err)
	}
	s.mu.Lock()
	s.scopes[scope] = cfg
	s.mu.Unlock()
	return nil
}

// Delete removes a scope binding, restoring default fallback.
func (s *Store) Delete(scope string) {
	s.mu.Lock()
	delete(s.scopes, scope)
	s.mu.Unlock()
}

// Scopes lists all scopes with explicit bindings.
func (s *Store) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.scopes))
	for scope := range s.scopes {
		out = append(out, scope)
	}
	return out
}
