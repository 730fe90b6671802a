// Package cache provee un cache key/value con dos backends:
//   - memory (go-cache, in-process)
//   - redis (compartido entre réplicas)
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) (string, error)
	// Set guarda un valor. ttl 0 usa el default del backend.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// ErrNotFound indica que la key no existe.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + k
}
