package keyset

import "sync"

// MemoryStore keeps the sealed blob in memory. For tests and ephemeral
// setups; everything is lost when the process exits.
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
	set  bool
}

var _ BlobStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored blob.
func (s *MemoryStore) Load() ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return nil, false, nil
	}
	return append([]byte(nil), s.blob...), true, nil
}

// Store replaces the stored blob with a copy of blob.
func (s *MemoryStore) Store(blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte(nil), blob...)
	s.set = true
	return nil
}
