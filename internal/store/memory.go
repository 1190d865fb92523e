package store

import (
	"context"
	"sort"
	"sync"

	"github.com/FocuswithJustin/lectio/internal/cache"
)

// Memory is a Backend held in process memory.
type Memory struct {
	mu      sync.RWMutex
	entries map[cache.Key]Entry
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{entries: make(map[cache.Key]Entry)}
}

func (m *Memory) Name() string { return BackendMemory }

func (m *Memory) Get(ctx context.Context, key cache.Key) ([]string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]string, len(e.Verses))
	copy(out, e.Verses)
	return out, true, nil
}

func (m *Memory) Put(ctx context.Context, key cache.Key, verses []string) error {
	stored := make([]string, len(verses))
	copy(stored, verses)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = NewEntry(key, stored)
	return nil
}

func (m *Memory) List(ctx context.Context, fn func(Entry) error) error {
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return lessKey(entries[i].Key, entries[j].Key) })
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *Memory) Close() error { return nil }

func lessKey(a, b cache.Key) bool {
	if a.Book != b.Book {
		return a.Book < b.Book
	}
	if a.Chapter != b.Chapter {
		return a.Chapter < b.Chapter
	}
	return a.Version < b.Version
}
