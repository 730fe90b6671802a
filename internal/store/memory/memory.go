// Package memory implementa repository.Store en memoria. Lo usan los tests
// y el modo desarrollo (storage.driver=memory).
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/store"
)

func init() {
	store.RegisterAdapter(adapter{})
}

type adapter struct{}

func (adapter) Name() string { return "memory" }

func (adapter) Connect(_ context.Context, _ store.Config) (repository.Store, error) {
	return New(), nil
}

type state struct {
	tenants  map[uuid.UUID]repository.Tenant
	roles    map[uuid.UUID]repository.Role
	users    map[uuid.UUID]repository.User
	refresh  map[uuid.UUID]repository.RefreshToken
	resets   map[uuid.UUID]repository.PasswordResetToken
	userSeq  map[uuid.UUID]int64 // orden de inserción para List
	sequence int64
}

func newState() *state {
	return &state{
		tenants: map[uuid.UUID]repository.Tenant{},
		roles:   map[uuid.UUID]repository.Role{},
		users:   map[uuid.UUID]repository.User{},
		refresh: map[uuid.UUID]repository.RefreshToken{},
		resets:  map[uuid.UUID]repository.PasswordResetToken{},
		userSeq: map[uuid.UUID]int64{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.tenants {
		c.tenants[k] = v
	}
	for k, v := range s.roles {
		c.roles[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.refresh {
		c.refresh[k] = v
	}
	for k, v := range s.resets {
		c.resets[k] = v
	}
	for k, v := range s.userSeq {
		c.userSeq[k] = v
	}
	c.sequence = s.sequence
	return c
}

// Store es el backend en memoria. Un único mutex serializa todo; InTx lo
// retiene durante fn y restaura un snapshot si fn falla.
type Store struct {
	mu sync.Mutex
	st *state
}

// New crea un store vacío.
func New() *Store { return &Store{st: newState()} }

// view implementa repository.Store; inTx indica que el lock ya está tomado.
type view struct {
	s    *Store
	inTx bool
}

func (s *Store) root() *view { return &view{s: s} }

func (v *view) with(fn func(st *state) error) error {
	if !v.inTx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(v.s.st)
}

func (s *Store) Users() repository.UserRepository                 { return userRepo{s.root()} }
func (s *Store) Tenants() repository.TenantRepository             { return tenantRepo{s.root()} }
func (s *Store) Roles() repository.RoleRepository                 { return roleRepo{s.root()} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return refreshRepo{s.root()} }
func (s *Store) ResetTokens() repository.PasswordResetTokenRepository {
	return resetRepo{s.root()}
}

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.root().InTx(ctx, fn)
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

func (v *view) Users() repository.UserRepository                 { return userRepo{v} }
func (v *view) Tenants() repository.TenantRepository             { return tenantRepo{v} }
func (v *view) Roles() repository.RoleRepository                 { return roleRepo{v} }
func (v *view) RefreshTokens() repository.RefreshTokenRepository { return refreshRepo{v} }
func (v *view) ResetTokens() repository.PasswordResetTokenRepository {
	return resetRepo{v}
}
func (v *view) Ping(context.Context) error { return nil }
func (v *view) Close()                     {}

func (v *view) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if v.inTx {
		return fn(v)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	snapshot := v.s.st.clone()
	if err := fn(&view{s: v.s, inTx: true}); err != nil {
		v.s.st = snapshot
		return err
	}
	return nil
}
