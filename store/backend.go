package store

import (
	"context"
	"sync"
)

// Backend is a key-value document store keyed by plugin name.
// Set must replace the document atomically.
type Backend interface {
	// Get returns the raw document, or ErrNotFound
	Get(ctx context.Context, name string) ([]byte, error)

	// Set replaces the document
	Set(ctx context.Context, name string, data []byte) error

	// Close releases any resources held by the backend
	Close() error
}

// MemoryBackend keeps documents in memory
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(ctx context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.docs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *MemoryBackend) Set(ctx context.Context, name string, data []byte) error {
	b.mu.Lock()
	b.docs[name] = append([]byte(nil), data...)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Close() error {
	return nil
}
