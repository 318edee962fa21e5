// Package store provides per-collection durable persistence keyed by entity
// id. The primary backend is a transactional SQLite object store; a legacy
// flat blob store exists only to feed the one-time startup migration.
package store

import (
	"context"
	"sort"
	"sync"
)

// Record is one stored entity: an opaque JSON payload keyed by id.
type Record struct {
	ID      string
	Payload []byte
}

// Store is the per-collection key-value contract. PutMany is an upsert sweep:
// it replaces records by id and never removes ids absent from the batch.
// Removal is always an explicit Delete.
type Store interface {
	GetAll(ctx context.Context) ([]Record, error)
	PutMany(ctx context.Context, recs []Record) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// MemoryStore is an in-memory Store. It backs the degraded mode entered when
// the primary backend cannot be opened, and most tests.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string][]byte)}
}

func (m *MemoryStore) GetAll(ctx context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.recs))
	for id, payload := range m.recs {
		p := make([]byte, len(payload))
		copy(p, payload)
		out = append(out, Record{ID: id, Payload: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) PutMany(ctx context.Context, recs []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		p := make([]byte, len(r.Payload))
		copy(p, r.Payload)
		m.recs[r.ID] = p
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, id)
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = make(map[string][]byte)
	return nil
}
