package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tenant es una organización cliente. Name es único globalmente.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Status    Status
	CreatedAt time.Time
}

// NewTenant valida el nombre y asigna ID y estado ACTIVE.
func NewTenant(name string, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, fmt.Errorf("tenant name: %w", ErrInvalidInput)
	}
	return &Tenant{ID: uuid.New(), Name: name, Status: StatusActive, CreatedAt: now.UTC()}, nil
}

// Active reporta si el tenant puede operar.
func (t *Tenant) Active() bool { return t != nil && t.Status == StatusActive }

// TenantRepository define operaciones sobre tenants.
type TenantRepository interface {
	// Create inserta el tenant. ErrConflict si el nombre ya existe.
	Create(ctx context.Context, t *Tenant) error
	// GetByID retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	// ExistsByName compara sin distinguir mayúsculas.
	ExistsByName(ctx context.Context, name string) (bool, error)
}
