package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

type roleRepo struct{ v *view }

func sameTenant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r roleRepo) Create(_ context.Context, role *repository.Role) error {
	return r.v.with(func(st *state) error {
		for _, ex := range st.roles {
			if ex.Name == role.Name && ex.Scope == role.Scope && sameTenant(ex.TenantID, role.TenantID) {
				return repository.ErrConflict
			}
		}
		c := *role
		c.TenantID = copyID(role.TenantID)
		st.roles[role.ID] = c
		return nil
	})
}

func (r roleRepo) FindByName(_ context.Context, f repository.TenantFilter, name string, scope repository.RoleScope) (*repository.Role, error) {
	var out *repository.Role
	name = repository.NormalizeRoleName(name)
	err := r.v.with(func(st *state) error {
		for _, ex := range st.roles {
			if ex.Name == name && ex.Scope == scope && f.Matches(ex.TenantID) {
				c := ex
				out = &c
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r roleRepo) List(_ context.Context, f repository.TenantFilter) ([]repository.Role, error) {
	var out []repository.Role
	err := r.v.with(func(st *state) error {
		for _, ex := range st.roles {
			if f.Matches(ex.TenantID) {
				out = append(out, ex)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Scope < out[j].Scope
	})
	return out, err
}
