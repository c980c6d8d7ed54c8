package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/keepsakelabs/keepsake/internal/clock"
)

type memoryEntry struct {
	tokens float64
	ts     time.Time
}

// MemoryBucket is the single-process fallback used when no redis address is
// configured. Same refill math as the redis script, state held in a map.
type MemoryBucket struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryBucket(c clock.Clock) *MemoryBucket {
	return &MemoryBucket{
		clock:   c,
		entries: map[string]*memoryEntry{},
	}
}

func (m *MemoryBucket) Allow(_ context.Context, key string, rate float64, burst int) (*Result, error) {
	if key == "" {
		return nil, errors.New("rate limiter key is empty")
	}
	if rate <= 0 || burst <= 0 {
		return nil, errors.New("rate limiter rate and burst must be positive")
	}

	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		entry = &memoryEntry{tokens: float64(burst), ts: now}
		m.entries[key] = entry
	} else {
		delta := now.Sub(entry.ts)
		if delta < 0 {
			delta = 0
		}
		entry.tokens = minFloat(float64(burst), entry.tokens+delta.Seconds()*rate)
		entry.ts = now
	}

	allowed := entry.tokens >= 1
	if allowed {
		entry.tokens--
	}
	return &Result{
		Allowed:    allowed,
		Remaining:  int(entry.tokens),
		RetryAfter: retryAfter(allowed, entry.tokens, rate),
	}, nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
