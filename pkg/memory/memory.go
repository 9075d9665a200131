// Package memory keeps a bounded, oldest-first record of recent items.
package memory

import "sync"

type Memory[T any] struct {
	items    []T
	capacity int
	mu       sync.RWMutex
}

// NewMemory panics if capacity is not positive.
func NewMemory[T any](capacity int) *Memory[T] {
	if capacity <= 0 {
		panic("memory: capacity must be positive")
	}
	return &Memory[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Store appends item, evicting the oldest one when full.
func (m *Memory[T]) Store(item T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items) == m.capacity {
		copy(m.items, m.items[1:])
		m.items = m.items[:len(m.items)-1]
	}
	m.items = append(m.items, item)
}

// All returns a copy of the stored items, oldest first.
func (m *Memory[T]) All() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]T, len(m.items))
	copy(out, m.items)
	return out
}

// Last returns up to n of the most recent items, oldest first.
func (m *Memory[T]) Last(n int) []T {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if n > len(m.items) {
		n = len(m.items)
	}
	if n <= 0 {
		return []T{}
	}
	out := make([]T, n)
	copy(out, m.items[len(m.items)-n:])
	return out
}

func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = m.items[:0]
}
