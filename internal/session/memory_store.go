package session

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

// MemoryStore is an in-memory Store for tests and ephemeral contexts.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
	clock   func() int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
		clock:   nowUnix,
	}
}

// SetClock overrides the time source. Test hook.
func (s *MemoryStore) SetClock(clock func() int64) {
	s.clock = clock
}

// Persist writes the credential record.
func (s *MemoryStore) Persist(owner solana.PublicKey, salt string, cred *Credential) error {
	data, err := encodeRecord(owner, cred)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[storeKey(owner, salt)] = data
	return nil
}

// Restore reads and re-derives a credential; see Store.
func (s *MemoryStore) Restore(owner solana.PublicKey, salt string) (*Credential, error) {
	key := storeKey(owner, salt)

	s.mu.RLock()
	data, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	cred, expired, err := decodeRecord(data, owner, s.clock())
	if err != nil {
		return nil, err
	}
	if expired {
		s.mu.Lock()
		delete(s.records, key)
		s.mu.Unlock()
		return nil, nil
	}
	return cred, nil
}

// Revoke deletes the record.
func (s *MemoryStore) Revoke(owner solana.PublicKey, salt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, storeKey(owner, salt))
	return nil
}
