package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

type tenantRepo struct{ v *view }

func (r tenantRepo) Create(_ context.Context, t *repository.Tenant) error {
	return r.v.with(func(st *state) error {
		for _, ex := range st.tenants {
			if strings.EqualFold(ex.Name, t.Name) {
				return repository.ErrConflict
			}
		}
		st.tenants[t.ID] = *t
		return nil
	})
}

func (r tenantRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.Tenant, error) {
	var out *repository.Tenant
	err := r.v.with(func(st *state) error {
		t, ok := st.tenants[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r tenantRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	found := false
	err := r.v.with(func(st *state) error {
		for _, t := range st.tenants {
			if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

// SetTenantStatus cambia el estado de un tenant (tests, herramientas).
func (s *Store) SetTenantStatus(id uuid.UUID, status repository.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.st.tenants[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	s.st.tenants[id] = t
	return nil
}
