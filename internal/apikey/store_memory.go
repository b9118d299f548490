package apikey

import (
	"context"
	"sync"
)

// InMemoryStore is the development and test implementation of Store.
// Credentials are indexed by lookup prefix, mirroring the database index the
// postgres store relies on.
type InMemoryStore struct {
	mu       sync.RWMutex
	byPrefix map[string][]*Credential
}

// NewInMemoryStore creates an empty in-memory credential store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byPrefix: make(map[string][]*Credential),
	}
}

// Create appends a credential under its lookup prefix.
func (s *InMemoryStore) Create(_ context.Context, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *cred
	s.byPrefix[cred.LookupPrefix] = append(s.byPrefix[cred.LookupPrefix], &c)
	return nil
}

// FindByPrefix returns every credential sharing the lookup prefix.
func (s *InMemoryStore) FindByPrefix(_ context.Context, lookupPrefix string) ([]*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byPrefix[lookupPrefix]
	out := make([]*Credential, len(stored))
	for i, c := range stored {
		copied := *c
		out[i] = &copied
	}
	return out, nil
}
