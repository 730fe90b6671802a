// Package tenancy aplica el aislamiento por tenant sobre el store.
//
// Toda lectura tenant-scoped pasa un repository.TenantFilter armado aquí a
// partir del tenant ligado al request (tenantctx). Las escrituras de
// entidades tenant-scoped exigen tenant ligado.
package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/tenantctx"
)

// ErrTenantNotResolved: operación tenant-scoped sin tenant ligado.
var ErrTenantNotResolved = errors.New("tenant not resolved")

// Enforcer entrega scopes sobre un store.
type Enforcer struct {
	store repository.Store
}

func NewEnforcer(s repository.Store) *Enforcer { return &Enforcer{store: s} }

// Scope arma un scope con el tenant ligado a ctx en este momento. No se
// cachea nada entre llamadas.
func (e *Enforcer) Scope(ctx context.Context) *Scope { return ScopeFor(ctx, e.store) }

// ScopeFor arma un scope sobre st (por ejemplo la tx de un InTx).
func ScopeFor(ctx context.Context, st repository.Store) *Scope {
	sc := &Scope{store: st}
	if id, ok := tenantctx.TenantID(ctx); ok {
		sc.tenant = &id
	}
	return sc
}

// Scope es la vista del store restringida al tenant del request.
type Scope struct {
	store  repository.Store
	tenant *uuid.UUID
}

// TenantID retorna el tenant del scope.
func (s *Scope) TenantID() (uuid.UUID, bool) {
	if s.tenant == nil {
		return uuid.Nil, false
	}
	return *s.tenant, true
}

// RequireTenant retorna el tenant o ErrTenantNotResolved.
func (s *Scope) RequireTenant() (uuid.UUID, error) {
	if s.tenant == nil {
		return uuid.Nil, ErrTenantNotResolved
	}
	return *s.tenant, nil
}

// UserFilter: tenant_id = $tenant. Sin tenant no filtra.
func (s *Scope) UserFilter() repository.TenantFilter {
	return repository.TenantFilter{TenantID: s.tenant}
}

// RoleFilter: tenant_id = $tenant OR tenant_id IS NULL.
func (s *Scope) RoleFilter() repository.TenantFilter {
	return repository.TenantFilter{TenantID: s.tenant, IncludeShared: true}
}

func (s *Scope) Users() *ScopedUsers { return &ScopedUsers{s: s} }
func (s *Scope) Roles() *ScopedRoles { return &ScopedRoles{s: s} }

// ScopedUsers opera usuarios dentro del scope.
type ScopedUsers struct{ s *Scope }

// Get retorna ErrNotFound también para usuarios de otro tenant.
func (u *ScopedUsers) Get(ctx context.Context, id uuid.UUID) (*repository.User, error) {
	return u.s.store.Users().GetByID(ctx, u.s.UserFilter(), id)
}

func (u *ScopedUsers) List(ctx context.Context, limit, offset int) ([]repository.User, error) {
	return u.s.store.Users().List(ctx, u.s.UserFilter(), limit, offset)
}

// Create crea un usuario del tenant con los roles TENANT nombrados.
func (u *ScopedUsers) Create(ctx context.Context, email, name, passwordHash string, roleNames ...string) (*repository.User, error) {
	tid, err := u.s.RequireTenant()
	if err != nil {
		return nil, err
	}
	roles := make([]repository.Role, 0, len(roleNames))
	for _, rn := range roleNames {
		r, err := u.s.store.Roles().FindByName(ctx, repository.ForTenant(tid), rn, repository.ScopeTenant)
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", rn, err)
		}
		roles = append(roles, *r)
	}
	user, err := repository.NewTenantUser(tid, email, name, passwordHash, roles...)
	if err != nil {
		return nil, err
	}
	if err := u.s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ScopedRoles opera roles dentro del scope. Los roles de plataforma son
// visibles desde cualquier tenant.
type ScopedRoles struct{ s *Scope }

func (r *ScopedRoles) List(ctx context.Context) ([]repository.Role, error) {
	return r.s.store.Roles().List(ctx, r.s.RoleFilter())
}

func (r *ScopedRoles) Find(ctx context.Context, name string, scope repository.RoleScope) (*repository.Role, error) {
	return r.s.store.Roles().FindByName(ctx, r.s.RoleFilter(), name, scope)
}

// Create crea un rol TENANT en el tenant del scope.
func (r *ScopedRoles) Create(ctx context.Context, name string) (*repository.Role, error) {
	tid, err := r.s.RequireTenant()
	if err != nil {
		return nil, err
	}
	role, err := repository.NewRole(name, repository.ScopeTenant, &tid)
	if err != nil {
		return nil, err
	}
	if err := r.s.store.Roles().Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}
