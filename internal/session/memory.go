package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/docuquery/docuquery/internal/crag"
)

// Memory is an in-process state store. States are deep-copied on both Load
// and Save so callers never share mutable slices with the cache, which
// gives the same no-partial-write guarantee the PostgreSQL store provides.
//
// Memory is safe for concurrent use by multiple goroutines.
type Memory struct {
	mu     sync.RWMutex
	states map[string]*crag.State
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{states: make(map[string]*crag.State)}
}

// Load returns a copy of the state stored under key, or
// crag.ErrStateNotFound.
func (m *Memory) Load(ctx context.Context, key string) (*crag.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[key]
	if !ok {
		return nil, fmt.Errorf("%w: key %q", crag.ErrStateNotFound, key)
	}
	return st.Clone(), nil
}

// Save stores a copy of the state under key.
func (m *Memory) Save(ctx context.Context, key string, st *crag.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[key] = st.Clone()
	return nil
}

// Len returns the number of stored conversations.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
