package store

import (
	"context"
	"sync"
)

// MemorySlot is an in-process Slot, used by tests and as a last-resort fallback.
type MemorySlot struct {
	mu   sync.Mutex
	data []byte
	set  bool
	// Err, when set, is returned by Get and Put.
	Err error
}

func (m *MemorySlot) Get(ctx context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, false, m.Err
	}
	return append([]byte(nil), m.data...), m.set, nil
}

func (m *MemorySlot) Put(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.data = append([]byte(nil), data...)
	m.set = true
	return nil
}

func (m *MemorySlot) Close() error { return nil }

// NewMemory returns a Local store over a fresh MemorySlot.
func NewMemory() *Local {
	return NewLocal("memory", &MemorySlot{})
}
