package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

type userRepo struct{ v *view }

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func copyUser(u repository.User) *repository.User {
	u.TenantID = copyID(u.TenantID)
	u.Roles = append([]repository.Role(nil), u.Roles...)
	return &u
}

func (r userRepo) Create(_ context.Context, u *repository.User) error {
	return r.v.with(func(st *state) error {
		for _, ex := range st.users {
			if ex.Email == u.Email {
				return repository.ErrConflict
			}
		}
		for _, role := range u.Roles {
			if _, ok := st.roles[role.ID]; !ok {
				return fmt.Errorf("role %s: %w", role.Name, repository.ErrNotFound)
			}
		}
		if u.TenantID != nil {
			if _, ok := st.tenants[*u.TenantID]; !ok {
				return fmt.Errorf("tenant: %w", repository.ErrNotFound)
			}
		}
		now := time.Now().UTC()
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		if u.UpdatedAt.IsZero() {
			u.UpdatedAt = u.CreatedAt
		}
		st.users[u.ID] = *copyUser(*u)
		st.sequence++
		st.userSeq[u.ID] = st.sequence
		return nil
	})
}

func (r userRepo) GetByID(_ context.Context, f repository.TenantFilter, id uuid.UUID) (*repository.User, error) {
	var out *repository.User
	err := r.v.with(func(st *state) error {
		u, ok := st.users[id]
		if !ok || !f.Matches(u.TenantID) {
			return repository.ErrNotFound
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	email = repository.NormalizeEmail(email)
	var out *repository.User
	err := r.v.with(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = copyUser(u)
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r userRepo) List(_ context.Context, f repository.TenantFilter, limit, offset int) ([]repository.User, error) {
	var out []repository.User
	err := r.v.with(func(st *state) error {
		ids := make([]uuid.UUID, 0, len(st.users))
		for id, u := range st.users {
			if f.Matches(u.TenantID) {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return st.userSeq[ids[i]] < st.userSeq[ids[j]] })
		if offset > len(ids) {
			offset = len(ids)
		}
		ids = ids[offset:]
		if limit > 0 && limit < len(ids) {
			ids = ids[:limit]
		}
		for _, id := range ids {
			out = append(out, *copyUser(st.users[id]))
		}
		return nil
	})
	return out, err
}

// LockForUpdate: el lock exclusivo del store ya serializa la tx.
func (r userRepo) LockForUpdate(_ context.Context, id uuid.UUID) error {
	return r.v.with(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r userRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string, at time.Time) error {
	return r.v.with(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.PasswordHash = hash
		u.UpdatedAt = at
		st.users[id] = u
		return nil
	})
}

// SetUserStatus cambia el estado de un usuario (tests, herramientas).
func (s *Store) SetUserStatus(id uuid.UUID, status repository.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = status
	s.st.users[id] = u
	return nil
}
