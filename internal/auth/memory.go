package auth

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a map-backed credential store for tests.
type MemoryStore struct {
	mu    sync.Mutex
	creds map[string]Credential
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]Credential)}
}

func (s *MemoryStore) Upsert(_ context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.Username] = cred
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, username string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[username]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds := make([]*Credential, 0, len(s.creds))
	for _, cred := range s.creds {
		c := cred
		creds = append(creds, &c)
	}
	sort.Slice(creds, func(i, j int) bool { return creds[i].Username < creds[j].Username })
	return creds, nil
}

func (s *MemoryStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, username)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
