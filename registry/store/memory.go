// Package store provides registry.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/landbook/registry"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	collections map[registry.Collection]map[registry.ID]registry.Record
	ids         *registry.Allocator
}

func NewMemory() *Memory {
	return &Memory{ids: registry.NewAllocator()}
}

// Initialize creates the collections on first use. Existing data is kept.
func (m *Memory) Initialize(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.collections == nil {
		m.collections = make(map[registry.Collection]map[registry.ID]registry.Record)
	}
	for _, c := range registry.AllCollections {
		if m.collections[c] == nil {
			m.collections[c] = make(map[registry.ID]registry.Record)
		}
	}
	return nil
}

// Create stores rec under a fresh id, or under its own id when it carries one.
func (m *Memory) Create(_ context.Context, rec registry.Record) (registry.ID, error) {
	if err := registry.Validate(rec); err != nil {
		return 0, err
	}
	rec = registry.Normalize(rec)

	m.mu.Lock()
	defer m.mu.Unlock()

	c := rec.Collection()
	records, err := m.collectionLocked(c)
	if err != nil {
		return 0, err
	}

	id := rec.RecordID()
	if id != 0 {
		if _, exists := records[id]; exists {
			return 0, &registry.ConstraintError{Collection: c, ID: id, Message: registry.MsgDuplicateID}
		}
		m.ids.Observe(c, id)
	} else {
		id = m.ids.Next(c)
	}
	records[id] = rec.WithID(id)
	return id, nil
}

func (m *Memory) Get(_ context.Context, c registry.Collection, id registry.ID) (registry.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, err := m.collectionLocked(c)
	if err != nil {
		return nil, err
	}
	rec, ok := records[id]
	if !ok {
		return nil, &registry.NotFoundError{Collection: c, ID: id}
	}
	return rec, nil
}

// GetAll returns the records of c ordered by id.
func (m *Memory) GetAll(_ context.Context, c registry.Collection) ([]registry.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records, err := m.collectionLocked(c)
	if err != nil {
		return nil, err
	}
	result := make([]registry.Record, 0, len(records))
	for _, rec := range records {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordID() < result[j].RecordID()
	})
	return result, nil
}

// Put replaces an existing record. Full replace, no field merging.
func (m *Memory) Put(_ context.Context, rec registry.Record) error {
	if err := registry.Validate(rec); err != nil {
		return err
	}
	rec = registry.Normalize(rec)

	m.mu.Lock()
	defer m.mu.Unlock()

	c := rec.Collection()
	records, err := m.collectionLocked(c)
	if err != nil {
		return err
	}
	if _, ok := records[rec.RecordID()]; !ok {
		return &registry.NotFoundError{Collection: c, ID: rec.RecordID()}
	}
	records[rec.RecordID()] = rec
	return nil
}

func (m *Memory) Delete(_ context.Context, c registry.Collection, id registry.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.collectionLocked(c)
	if err != nil {
		return err
	}
	if _, ok := records[id]; !ok {
		return &registry.NotFoundError{Collection: c, ID: id}
	}
	delete(records, id)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) collectionLocked(c registry.Collection) (map[registry.ID]registry.Record, error) {
	if m.collections == nil {
		return nil, registry.ErrNotInitialized
	}
	records, ok := m.collections[c]
	if !ok {
		return nil, &registry.ValidationError{Collection: c, Field: "collection", Reason: "is unknown"}
	}
	return records, nil
}

