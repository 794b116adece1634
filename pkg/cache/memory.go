package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a process-local LRU with per-entry expiry
type Memory struct {
	cache  *lru.LRU[string, []byte]
	hits   atomic.Int64
	misses atomic.Int64

	mu          sync.Mutex
	generations map[int64]int64
}

// NewMemory creates a memory tier holding at most entries documents for ttl
func NewMemory(entries int, ttl time.Duration) *Memory {
	if entries < 10 {
		entries = 10
	}
	return &Memory{
		cache:       lru.NewLRU[string, []byte](entries, nil, ttl),
		generations: make(map[int64]int64),
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		m.misses.Add(1)
		return nil, false, nil
	}
	m.hits.Add(1)
	return v, true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	m.cache.Add(key, value)
	return nil
}

func (m *Memory) InvalidatePrefix(ctx context.Context, prefix string) error {
	for _, key := range m.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.cache.Remove(key)
		}
	}
	return nil
}

func (m *Memory) Generation(ctx context.Context, specID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[specID], nil
}

func (m *Memory) BumpGeneration(ctx context.Context, specID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[specID]++
	return nil
}

// Stats returns hit and miss counts and the current entry count
func (m *Memory) Stats() (hits, misses int64, entries int) {
	return m.hits.Load(), m.misses.Load(), m.cache.Len()
}

func (m *Memory) Close() error {
	m.cache.Purge()
	return nil
}
