package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryDB keeps snapshots for the life of the process only.
type MemoryDB struct {
	mu    sync.RWMutex
	items map[string]memorySnapshot
}

type memorySnapshot struct {
	payload    []byte
	capturedAt time.Time
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{items: make(map[string]memorySnapshot)}
}

func (d *MemoryDB) Initialize(context.Context) error { return nil }

func (d *MemoryDB) SaveSnapshot(_ context.Context, key string, payload []byte, capturedAt time.Time) error {
	cp := append([]byte(nil), payload...)
	d.mu.Lock()
	d.items[key] = memorySnapshot{payload: cp, capturedAt: capturedAt.UTC()}
	d.mu.Unlock()
	return nil
}

func (d *MemoryDB) LoadSnapshot(_ context.Context, key string) ([]byte, time.Time, bool, error) {
	d.mu.RLock()
	s, ok := d.items[key]
	d.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return append([]byte(nil), s.payload...), s.capturedAt, true, nil
}

func (d *MemoryDB) Close() error { return nil }
