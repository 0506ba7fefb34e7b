package bus

import (
	"context"
	"sync"
)

// MemoryBus delivers messages synchronously to every forwarder in the
// process. It stands in for Redis in tests and single-instance setups.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers []func(InvalidationMessage)
}

func NewMemoryBus() *MemoryBus { return &MemoryBus{} }

func (b *MemoryBus) Publish(_ context.Context, msg InvalidationMessage) error {
	b.mu.RLock()
	handlers := append(([]func(InvalidationMessage))(nil), b.handlers...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(msg)
	}
	return nil
}

func (b *MemoryBus) StartForwarder(_ context.Context, onMsg func(m InvalidationMessage)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, onMsg)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.handlers = nil
	b.mu.Unlock()
	return nil
}
