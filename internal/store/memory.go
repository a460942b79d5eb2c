package store

import (
	"context"
	"sync"
)

// Memory keeps the table in process memory. Used by tests and by
// STORE_BACKEND=memory for local runs where durability does not matter.
type Memory struct {
	mu    sync.Mutex
	table Table
}

func NewMemory() *Memory {
	return &Memory{table: Table{}}
}

func (m *Memory) Load(ctx context.Context) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.table.Clone(), nil
}

func (m *Memory) Save(ctx context.Context, t Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = t.Clone()
	return nil
}
