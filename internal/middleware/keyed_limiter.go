package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterEntry: tracks a rate limiter and its last use time
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter: one token bucket per key (participant, connection, IP)
type KeyedLimiter struct {
	limit    rate.Limit
	burst    int
	now      func() time.Time
	limiters map[string]*limiterEntry
	mu       sync.Mutex
}

// NewKeyedLimiter: creates a limiter allowing perSecond events per key with the given burst
func NewKeyedLimiter(perSecond float64, burst int) *KeyedLimiter {
	return newKeyedLimiter(rate.Limit(perSecond), burst)
}

func newKeyedLimiter(limit rate.Limit, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limit:    limit,
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*limiterEntry),
	}
}

// Allow: takes one token from key's bucket
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	entry, exists := kl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(kl.limit, kl.burst)}
		kl.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

// Cleanup: removes limiters that haven't been used for longer than idle
func (kl *KeyedLimiter) Cleanup(idle time.Duration) int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	removed := 0
	for key, entry := range kl.limiters {
		if now.Sub(entry.lastSeen) > idle {
			delete(kl.limiters, key)
			removed++
		}
	}
	return removed
}

// Len: number of tracked keys
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.limiters)
}
