package store

import (
	"context"
	"sort"
	"sync"
)

type memoryEntry struct {
	info Info
	data []byte
}

// Memory is an in-process Store. Snapshots are held encoded so callers
// never share state with stored records.
type Memory struct {
	mu     sync.RWMutex
	models map[string]memoryEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{models: make(map[string]memoryEntry)}
}

func (m *Memory) Put(_ context.Context, rec *Record) error {
	data, err := encode(rec.Snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.models[rec.ID] = memoryEntry{info: rec.Info, data: data}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	e, ok := m.models[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	snap, err := decode(e.data)
	if err != nil {
		return nil, err
	}
	return &Record{Info: e.info, Snapshot: snap}, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.models[id]; !ok {
		return ErrNotFound
	}
	delete(m.models, id)
	return nil
}

func (m *Memory) List(_ context.Context) ([]Info, error) {
	m.mu.RLock()
	out := make([]Info, 0, len(m.models))
	for _, e := range m.models {
		out = append(out, e.info)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.models), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}
