package store

import (
	"log/slog"
	"sync"
)

type memoryBackend struct {
	collections map[string]map[string]record
	mu          sync.RWMutex
}

// NewMemory: document store held in process memory
func NewMemory(log *slog.Logger, opts ...Option) *DocumentStore {
	return newDocumentStore(&memoryBackend{collections: make(map[string]map[string]record)}, log, opts...)
}

func (m *memoryBackend) load(collection, id string) (record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.collections[collection][id]
	if !ok {
		return record{}, false, nil
	}
	rec.Fields = copyFields(rec.Fields)
	return rec, true, nil
}

func (m *memoryBackend) save(rec record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.collections[rec.Collection]
	if !ok {
		docs = make(map[string]record)
		m.collections[rec.Collection] = docs
	}
	rec.Fields = copyFields(rec.Fields)
	docs[rec.ID] = rec
	return nil
}

func (m *memoryBackend) remove(collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections[collection], id)
	return nil
}

func (m *memoryBackend) scan(collection string) ([]record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]record, 0, len(m.collections[collection]))
	for _, rec := range m.collections[collection] {
		rec.Fields = copyFields(rec.Fields)
		records = append(records, rec)
	}
	return records, nil
}

func (m *memoryBackend) close() error { return nil }
