package databasetest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/abisalde/marketplace-service/internal/database"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process stand-in for the Redis cache.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]entry
	counters map[string]entry
	now      func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:  map[string]entry{},
		counters: map[string]entry{},
		now:      time.Now,
	}
}

func (m *MemoryCache) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: b}
	if expiration > 0 {
		e.expiresAt = m.now().Add(expiration)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	m.mu.Unlock()

	if !ok || (!e.expiresAt.IsZero() && m.now().After(e.expiresAt)) {
		return database.ErrCacheMiss
	}
	return json.Unmarshal(e.value, dest)
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *MemoryCache) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.counters[key]
	if !ok || now.After(e.expiresAt) {
		e = entry{value: []byte("0"), expiresAt: now.Add(window)}
	}

	var n int64
	_ = json.Unmarshal(e.value, &n)
	n++
	e.value, _ = json.Marshal(n)
	m.counters[key] = e

	return n, e.expiresAt.Sub(now), nil
}

// Len reports how many cache entries are stored.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryCache) Ping(context.Context) error { return nil }

var (
	_ database.CacheService = (*MemoryCache)(nil)
	_ database.CounterStore = (*MemoryCache)(nil)
)
