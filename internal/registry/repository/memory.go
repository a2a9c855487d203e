package repository

import (
	"context"
	"sync"

	"github.com/docledger/docledger/internal/registry"
)

// MemoryStore is the in-memory owner index used for unit tests and for
// standalone runs without MongoDB. Sequences only ever grow.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]registry.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]registry.Document)}
}

func (m *MemoryStore) Append(ctx context.Context, owner string, doc registry.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[owner] = append(m.docs[owner], doc)
	return nil
}

func (m *MemoryStore) Count(ctx context.Context, owner string) (uint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint(len(m.docs[owner])), nil
}

func (m *MemoryStore) Get(ctx context.Context, owner string, index uint8) (registry.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seq := m.docs[owner]
	if int(index) >= len(seq) {
		return registry.Document{}, false, nil
	}
	return seq[index], true, nil
}
