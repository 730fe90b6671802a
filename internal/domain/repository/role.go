package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RoleScope distingue roles globales de roles de un tenant.
type RoleScope string

const (
	ScopePlatform RoleScope = "PLATFORM"
	ScopeTenant   RoleScope = "TENANT"
)

// Role es un rol nombrado. PLATFORM => TenantID nil; TENANT => TenantID set.
type Role struct {
	ID        uuid.UUID
	Name      string
	Scope     RoleScope
	TenantID  *uuid.UUID
	CreatedAt time.Time
}

// NormalizeRoleName pasa a mayúsculas y quita el prefijo ROLE_.
func NormalizeRoleName(name string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "ROLE_")
}

// NewRole construye un rol validando la invariante de scope.
func NewRole(name string, scope RoleScope, tenantID *uuid.UUID) (*Role, error) {
	name = NormalizeRoleName(name)
	if name == "" {
		return nil, fmt.Errorf("role name: %w", ErrInvalidInput)
	}
	switch scope {
	case ScopePlatform:
		if tenantID != nil {
			return nil, ErrRoleScope
		}
	case ScopeTenant:
		if tenantID == nil || *tenantID == uuid.Nil {
			return nil, ErrRoleScope
		}
		id := *tenantID
		tenantID = &id
	default:
		return nil, fmt.Errorf("role scope %q: %w", scope, ErrInvalidInput)
	}
	return &Role{ID: uuid.New(), Name: name, Scope: scope, TenantID: tenantID}, nil
}

// RoleRepository define operaciones sobre roles.
type RoleRepository interface {
	// Create inserta el rol. ErrConflict si (name, scope, tenant) ya existe.
	Create(ctx context.Context, r *Role) error
	// FindByName busca un rol visible bajo f. ErrNotFound si no hay.
	FindByName(ctx context.Context, f TenantFilter, name string, scope RoleScope) (*Role, error)
	// List retorna los roles visibles bajo f, ordenados por nombre.
	List(ctx context.Context, f TenantFilter) ([]Role, error)
}
