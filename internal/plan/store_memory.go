package plan

import (
	"context"
	"sync"
)

// InMemorySubscriptionStore is the development and test implementation of
// SubscriptionStore.
type InMemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]Subscription // userID -> subscription
}

// NewInMemorySubscriptionStore creates an empty in-memory store.
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subs: make(map[string]Subscription),
	}
}

// Put inserts or replaces a subscription record.
func (s *InMemorySubscriptionStore) Put(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.UserID] = sub
}

// FindByUserID returns the subscription for a user, or nil when absent.
func (s *InMemorySubscriptionStore) FindByUserID(_ context.Context, userID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[userID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}
