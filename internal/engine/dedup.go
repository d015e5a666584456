package engine

import (
	"context"
	"fmt"
	"sync"
)

// DedupStore remembers which (subscription, offset) pairs were already
// notified. Get reports false for keys never set.
type DedupStore interface {
	Get(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, value bool) error
}

// DedupKey is the identity under which a reminder is tracked: one flag per
// subscription per lead time.
func DedupKey(subscriptionID string, offset int) string {
	return fmt.Sprintf("notified_%s_%d", subscriptionID, offset)
}

// MemoryDedupStore is an in-process DedupStore.
type MemoryDedupStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewMemoryDedupStore() *MemoryDedupStore {
	return &MemoryDedupStore{flags: make(map[string]bool)}
}

func (m *MemoryDedupStore) Get(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[key], nil
}

func (m *MemoryDedupStore) Set(_ context.Context, key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[key] = value
	return nil
}

// Len returns the number of keys currently flagged true.
func (m *MemoryDedupStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, v := range m.flags {
		if v {
			n++
		}
	}
	return n
}
