package store

import (
	"fmt"
	"sort"
	"sync"
)

// NewMemory returns a store that keeps everything in process. It backs tests
// and one-shot commands that should not touch disk.
func NewMemory(device string, opts ...Option) *Store {
	s, err := open(newMemoryBackend(), "", device, opts...)
	if err != nil {
		// The memory backend cannot fail to read its own state.
		panic(err)
	}
	return s
}

type memoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string][]byte)}
}

func (m *memoryBackend) Read(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("store: %s: %w", key, errNoKey)
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryBackend) Write(key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), val...)
	return nil
}

func (m *memoryBackend) Erase(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryBackend) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

func (m *memoryBackend) Keys(cancel <-chan struct{}) <-chan string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, k := range keys {
			select {
			case ch <- k:
			case <-cancel:
				return
			}
		}
	}()
	return ch
}
