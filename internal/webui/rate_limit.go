package webui

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client key. Buckets idle for
// limiterIdleTTL are dropped on the next sweep.
type clientLimiter struct {
	mu        sync.Mutex
	m         map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func newClientLimiter(perMinute int) *clientLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &clientLimiter{
		m:     make(map[string]*limiterEntry),
		rate:  rate.Limit(float64(perMinute) / 60.0),
		burst: perMinute,
		now:   time.Now,
	}
}

func (c *clientLimiter) allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) > limiterIdleTTL {
		c.sweep(now)
	}

	entry, ok := c.m[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(c.rate, c.burst)}
		c.m[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (c *clientLimiter) sweep(now time.Time) {
	for key, entry := range c.m {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(c.m, key)
		}
	}
	c.lastSweep = now
}

func (c *clientLimiter) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
