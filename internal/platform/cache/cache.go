// Package cache holds the per-resource response caches. Staleness is a plain
// TTL; writers call Invalidate with the resource prefix instead of waiting
// for expiry. The clock is injected so staleness is testable.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store is what services depend on. Values are opaque bytes; services
// marshal/unmarshal their own payloads.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// Invalidate drops every key under the given prefix.
	Invalidate(ctx context.Context, prefix string)
}

// Clock lets tests control staleness.
type Clock func() time.Time

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store with TTL expiry.
type Memory struct {
	mu    sync.RWMutex
	now   Clock
	items map[string]entry
}

func NewMemory(now Clock) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{now: now, items: map[string]entry{}}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[key]
	if !ok || m.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

func (m *Memory) Invalidate(_ context.Context, prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
}
