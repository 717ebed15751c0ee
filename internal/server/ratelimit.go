package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an untouched client bucket is kept.
const limiterIdleTTL = 10 * time.Minute

// sweepThreshold bounds the bucket map before idle entries are evicted.
const sweepThreshold = 4096

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// keyedLimiter manages an independent token bucket per client key.
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func newKeyedLimiter(rps float64, burst int) *keyedLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &keyedLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether a request from key may proceed now.
func (k *keyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	cl, ok := k.limiters[key]
	if !ok {
		if len(k.limiters) >= sweepThreshold {
			k.sweepLocked(now)
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (k *keyedLimiter) sweepLocked(now time.Time) {
	for key, cl := range k.limiters {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(k.limiters, key)
		}
	}
}

func (k *keyedLimiter) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}
