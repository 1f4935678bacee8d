package store

import (
	"context"
	"sync"
)

// MemoryStore keeps session state in process memory. Suitable for tests
// and single-instance deployments that can afford to lose sessions on
// restart.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(state))
	copy(buf, state)
	s.states[sessionID] = buf
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(state))
	copy(buf, state)
	return buf, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
	return nil
}
