// Package rate limita intentos por key (endpoint + IP) para login y forgot
// password. Dos backends: fixed window en Redis (multi-réplica) y token
// bucket en memoria.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

// Limiter decide si key ("route|ip") puede seguir.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Counter incrementa el contador de key y devuelve los hits de la ventana y
// el tiempo que le queda. El primer hit fija la expiración en window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (hits int64, ttl time.Duration, err error)
}

// incrWindow hace INCR y PEXPIRE en un solo round trip atómico.
var incrWindow = rdb.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// RedisCounter implementa Counter sobre go-redis.
type RedisCounter struct {
	Client rdb.Scripter
}

func (c RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	vals, err := incrWindow.Run(ctx, c.Client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(vals) != 2 {
		return 0, 0, fmt.Errorf("rate: unexpected script reply %v", vals)
	}
	return vals[0], time.Duration(vals[1]) * time.Millisecond, nil
}

// RedisLimiter: fixed window por key. Todas las réplicas comparten cupo.
type RedisLimiter struct {
	Counter Counter
	Prefix  string
	Max     int64
	Window  time.Duration
	Now     func() time.Time
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{
		Counter: RedisCounter{Client: client},
		Prefix:  prefix,
		Max:     int64(max),
		Window:  window,
		Now:     time.Now,
	}
}

// windowKey: <prefix><route|ip>:<inicio de ventana unix>. Sin espacios.
func (l *RedisLimiter) windowKey(key string, now time.Time) string {
	start := now.UTC().Truncate(l.Window)
	return fmt.Sprintf("%s%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), start.Unix())
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	hits, ttl, err := l.Counter.Incr(ctx, l.windowKey(key, now), l.Window)
	if err != nil {
		return Result{}, fmt.Errorf("rate: redis incr: %w", err)
	}

	res := Result{
		Allowed:     hits <= l.Max,
		Remaining:   max(l.Max-hits, 0),
		CurrentHits: hits,
	}
	if !res.Allowed {
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			// sin TTL legible: lo que falta de la ventana actual
			res.RetryAfter = now.UTC().Truncate(l.Window).Add(l.Window).Sub(now.UTC())
		}
	}
	return res, nil
}
