package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
)

// Memory is a process local cache with per-entry expiry.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

type entry struct {
	value     any
	expiresAt time.Time
}

var (
	_ interfaces.CacheProvider = (*Memory)(nil)
	_ interfaces.PrefixCache   = (*Memory)(nil)
)

// Option customises a Memory cache.
type Option func(*Memory)

// WithDefaultTTL applies ttl when Set is called with a zero duration.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(m *Memory) {
		m.defaultTTL = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory returns an empty cache.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		entries: map[string]entry{},
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Get returns the cached value or nil on a miss.
func (m *Memory) Get(_ context.Context, key string) (any, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}
	return e.value, nil
}

// Set stores value. A zero ttl falls back to the default TTL; when both are
// zero the entry never expires.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.entries = map[string]entry{}
	m.mu.Unlock()
	return nil
}

// DeleteByPrefix drops every key starting with prefix.
func (m *Memory) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
