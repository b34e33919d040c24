package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Store keeps JSON-encoded values under string keys.
type Store interface {
	Get(ctx context.Context, key string, target interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

type item struct {
	data       []byte
	expiration int64 // unix nanos, 0 = never
}

// Memory is a process-local Store with lazy expiry and a periodic sweep.
type Memory struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemory starts a sweeper that removes expired keys every interval.
func NewMemory(interval time.Duration) *Memory {
	m := &Memory{
		items: make(map[string]item),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if interval > 0 {
		go m.cleanupExpired(interval)
	}
	return m
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var exp int64
	if ttl > 0 {
		exp = m.now().Add(ttl).UnixNano()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = item{data: data, expiration: exp}
	return nil
}

func (m *Memory) Get(_ context.Context, key string, target interface{}) (bool, error) {
	m.mu.RLock()
	it, found := m.items[key]
	m.mu.RUnlock()

	if !found || it.expired(m.now().UnixNano()) {
		return false, nil
	}
	if err := json.Unmarshal(it.data, target); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) DeleteByPrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

// Size counts stored keys, expired ones included until swept.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close stops the sweeper.
func (m *Memory) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Memory) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	now := m.now().UnixNano()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, it := range m.items {
		if it.expired(now) {
			delete(m.items, key)
		}
	}
}

func (it item) expired(now int64) bool {
	return it.expiration != 0 && now > it.expiration
}
