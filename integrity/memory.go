package integrity

import (
	"context"
	"maps"
	"sync"
)

// Memory is a Store that lives only as long as the process.
type Memory struct {
	mu     sync.Mutex
	hashes map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{hashes: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hashes[name]
	return h, ok, nil
}

func (m *Memory) Put(ctx context.Context, name, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.hashes[name] = hash
	return nil
}

// Snapshot returns a copy of every record.
func (m *Memory) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return maps.Clone(m.hashes)
}

func (m *Memory) Close() error { return nil }
