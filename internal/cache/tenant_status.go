package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

// TenantStatus cachea el estado de los tenants para el gate del middleware.
type TenantStatus struct {
	c       Client
	tenants repository.TenantRepository
	ttl     time.Duration
}

func NewTenantStatus(c Client, tenants repository.TenantRepository, ttl time.Duration) *TenantStatus {
	return &TenantStatus{c: c, tenants: tenants, ttl: ttl}
}

const tenantKeyPrefix = "tenant_status:"

// Status retorna el estado del tenant. ErrNotFound del repo se propaga.
func (t *TenantStatus) Status(ctx context.Context, id uuid.UUID) (repository.Status, error) {
	key := tenantKeyPrefix + id.String()
	if v, err := t.c.Get(ctx, key); err == nil {
		return repository.Status(v), nil
	}
	tn, err := t.tenants.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	// un fallo del cache no debe cortar el request
	_ = t.c.Set(ctx, key, string(tn.Status), t.ttl)
	return tn.Status, nil
}

// Invalidate descarta el estado cacheado (tras activar/desactivar).
func (t *TenantStatus) Invalidate(ctx context.Context, id uuid.UUID) error {
	return t.c.Delete(ctx, tenantKeyPrefix+id.String())
}
