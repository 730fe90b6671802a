// Package tenantctx liga el tenant del request al context.Context.
//
// El middleware HTTP crea un Holder por request y difiere Clear(), así la
// ligadura no sobrevive al request sin importar cómo termine (return,
// error o panic).
package tenantctx

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Holder guarda el tenant ligado a un request. Seguro para uso concurrente.
type Holder struct {
	mu    sync.RWMutex
	id    uuid.UUID
	bound bool
}

// Set liga id. Reemplaza cualquier ligadura previa.
func (h *Holder) Set(id uuid.UUID) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.id, h.bound = id, true
	h.mu.Unlock()
}

// Get retorna el tenant ligado, si hay.
func (h *Holder) Get() (uuid.UUID, bool) {
	if h == nil {
		return uuid.Nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.id, h.bound
}

// Clear quita la ligadura. Idempotente.
func (h *Holder) Clear() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.id, h.bound = uuid.Nil, false
	h.mu.Unlock()
}

type ctxKey struct{}

// NewContext retorna un ctx derivado con un Holder vacío.
func NewContext(ctx context.Context) (context.Context, *Holder) {
	h := &Holder{}
	return context.WithValue(ctx, ctxKey{}, h), h
}

// FromContext retorna el Holder del request o nil.
func FromContext(ctx context.Context) *Holder {
	h, _ := ctx.Value(ctxKey{}).(*Holder)
	return h
}

// TenantID es un atajo para FromContext(ctx).Get().
func TenantID(ctx context.Context) (uuid.UUID, bool) {
	return FromContext(ctx).Get()
}

// WithTenant retorna un ctx con un Holder ya ligado a id. Lo usan jobs y
// tests que no pasan por el middleware.
func WithTenant(ctx context.Context, id uuid.UUID) context.Context {
	ctx, h := NewContext(ctx)
	h.Set(id)
	return ctx
}
