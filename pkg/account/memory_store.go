package account

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and single-process development.
// It keeps a secondary index on the subscription reference, mirroring what
// the durable implementations do with a database index.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	bySubRef map[string]string // subscription ref -> account ID
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
		bySubRef: make(map[string]string),
	}
}

func (s *MemoryStore) Create(_ context.Context, acc *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acc.ID]; exists {
		return ErrAlreadyExists
	}
	s.accounts[acc.ID] = acc.Clone()
	if acc.BillingSubscriptionRef != "" {
		s.bySubRef[acc.BillingSubscriptionRef] = acc.ID
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return acc.Clone(), nil
}

func (s *MemoryStore) GetBySubscriptionRef(_ context.Context, ref string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySubRef[ref]
	if !ok {
		return nil, ErrNotFound
	}
	acc, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return acc.Clone(), nil
}

func (s *MemoryStore) ConditionalUpdate(_ context.Context, id string, expectedVersion int64, patch Patch) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if acc.Version != expectedVersion {
		return nil, ErrVersionConflict
	}

	updated := acc.Clone()
	if updated.BillingSubscriptionRef != "" {
		delete(s.bySubRef, updated.BillingSubscriptionRef)
	}
	patch.Apply(updated)
	s.accounts[id] = updated
	if updated.BillingSubscriptionRef != "" {
		s.bySubRef[updated.BillingSubscriptionRef] = id
	}
	return updated.Clone(), nil
}
