package rate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter es un token bucket por key: Max tokens que se reponen a lo
// largo de Window. Para una sola réplica o desarrollo.
type MemoryLimiter struct {
	Max    int
	Window time.Duration
	Now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSwept time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{Max: max, Window: window, Now: time.Now, buckets: map[string]*bucket{}}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		every := rate.Every(l.Window / time.Duration(max(l.Max, 1)))
		b = &bucket{lim: rate.NewLimiter(every, l.Max)}
		l.buckets[key] = b
	}
	b.seen = now

	if b.lim.AllowN(now, 1) {
		return Result{Allowed: true, Remaining: int64(b.lim.TokensAt(now))}, nil
	}
	r := b.lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return Result{Allowed: false, RetryAfter: delay}, nil
}

// sweep descarta buckets sin uso por más de una ventana.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSwept) < l.Window {
		return
	}
	l.lastSwept = now
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.Window {
			delete(l.buckets, k)
		}
	}
}
