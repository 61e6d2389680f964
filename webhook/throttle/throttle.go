package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	maxTrackedKeys = 10000
	idleTTL        = 10 * time.Minute
)

// Limiter spaces out deliveries per destination.
// A nil *Limiter never blocks.
type Limiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// New returns a limiter allowing perMinute deliveries per key, or nil when perMinute <= 0
func New(perMinute, burst int) *Limiter {
	return newLimiter(perMinute, burst, idleTTL)
}

// newLimiter forgets a key once it has gone unused for ttl
func newLimiter(perMinute, burst int, ttl time.Duration) *Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxTrackedKeys, nil, ttl),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

// Wait blocks until key may send again or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	if err := l.get(key).Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limit: %w", err)
	}
	return nil
}

// Allow reports whether key may send right now without waiting
func (l *Limiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	return l.get(key).Allow()
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters.Get(key); ok {
		// Re-adding renews the entry's expiry
		l.limiters.Add(key, lim)
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Add(key, lim)
	return lim
}
