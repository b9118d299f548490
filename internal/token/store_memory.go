package token

import (
	"context"
	"sync"
)

// InMemoryStore is a thread-safe refresh credential store for tests and
// local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*RefreshCredential
	byHash  map[string]string // token hash -> credential id
	byPlain map[string]string // legacy plaintext -> credential id
}

// NewInMemoryStore creates an empty in-memory refresh store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[string]*RefreshCredential),
		byHash:  make(map[string]string),
		byPlain: make(map[string]string),
	}
}

func (s *InMemoryStore) Create(_ context.Context, cred *RefreshCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *cred
	s.byID[cp.ID] = &cp
	if cp.TokenHash != "" {
		s.byHash[cp.TokenHash] = cp.ID
	}
	if cp.TokenPlain != "" {
		s.byPlain[cp.TokenPlain] = cp.ID
	}
	return nil
}

func (s *InMemoryStore) FindByHash(_ context.Context, tokenHash string) (*RefreshCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[tokenHash]
	if !ok {
		return nil, nil
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemoryStore) FindByPlain(_ context.Context, tokenStr string) (*RefreshCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPlain[tokenStr]
	if !ok {
		return nil, nil
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemoryStore) MarkRevoked(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred, ok := s.byID[id]; ok {
		cred.Revoked = true
	}
	return nil
}
