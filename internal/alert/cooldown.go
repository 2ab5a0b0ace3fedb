package alert

import (
	"context"
	"sync"
	"time"
)

// CooldownStore records which dedup keys were delivered recently.
type CooldownStore interface {
	// Acquire reports true when key was not delivered within ttl and
	// marks it as delivered now.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// MemoryCooldown is a process-local CooldownStore.
type MemoryCooldown struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

func NewMemoryCooldown() *MemoryCooldown {
	return &MemoryCooldown{
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *MemoryCooldown) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if last, ok := m.lastSent[key]; ok && now.Sub(last) < ttl {
		return false, nil
	}
	m.lastSent[key] = now

	// Drop expired keys so long-running workers do not grow the map.
	for k, t := range m.lastSent {
		if now.Sub(t) >= ttl {
			delete(m.lastSent, k)
		}
	}
	return true, nil
}
