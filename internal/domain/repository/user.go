package repository

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User es una cuenta. Los usuarios de plataforma no tienen TenantID.
// Nunca se borran: se desactivan con Status INACTIVE.
type User struct {
	ID           uuid.UUID
	TenantID     *uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Roles        []Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reporta si el usuario puede autenticarse.
func (u *User) Active() bool { return u != nil && u.Status == StatusActive }

// RoleNames retorna los nombres de rol en el orden almacenado.
func (u *User) RoleNames() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Name)
	}
	return out
}

// NormalizeEmail aplica trim + lower; el email es único globalmente.
func NormalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// NewTenantUser construye un usuario ligado a un tenant. Todos los roles
// deben ser TENANT del mismo tenant.
func NewTenantUser(tenantID uuid.UUID, email, name, passwordHash string, roles ...Role) (*User, error) {
	if tenantID == uuid.Nil {
		return nil, ErrTenantRequired
	}
	for _, r := range roles {
		if r.Scope != ScopeTenant || r.TenantID == nil || *r.TenantID != tenantID {
			return nil, fmt.Errorf("role %s: %w", r.Name, ErrRoleScope)
		}
	}
	u, err := newUser(email, name, passwordHash, roles)
	if err != nil {
		return nil, err
	}
	u.TenantID = &tenantID
	return u, nil
}

// NewPlatformUser construye un usuario sin tenant con roles PLATFORM.
func NewPlatformUser(email, name, passwordHash string, roles ...Role) (*User, error) {
	for _, r := range roles {
		if r.Scope != ScopePlatform {
			return nil, fmt.Errorf("role %s: %w", r.Name, ErrRoleScope)
		}
	}
	return newUser(email, name, passwordHash, roles)
}

func newUser(email, name, passwordHash string, roles []Role) (*User, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || len(email) > 320 {
		return nil, fmt.Errorf("email: %w", ErrInvalidInput)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name: %w", ErrInvalidInput)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("password hash: %w", ErrInvalidInput)
	}
	return &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Roles:        append([]Role(nil), roles...),
		Status:       StatusActive,
	}, nil
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// Create inserta el usuario y sus asignaciones de rol (los roles deben
	// existir). ErrConflict si el email ya existe.
	Create(ctx context.Context, u *User) error

	// GetByID busca un usuario visible bajo f. ErrNotFound si no existe o
	// pertenece a otro tenant.
	GetByID(ctx context.Context, f TenantFilter, id uuid.UUID) (*User, error)

	// GetByEmail busca por email (único global). Lo usan login y forgot
	// password, que corren antes de conocer el tenant.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List lista usuarios visibles bajo f, ordenados por created_at.
	List(ctx context.Context, f TenantFilter, limit, offset int) ([]User, error)

	// LockForUpdate bloquea la fila del usuario hasta el fin de la
	// transacción (SELECT ... FOR UPDATE en pg). Serializa las operaciones
	// sobre tokens del mismo usuario. ErrNotFound si no existe.
	LockForUpdate(ctx context.Context, id uuid.UUID) error

	// UpdatePasswordHash reemplaza el hash. ErrNotFound si no existe.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, at time.Time) error
}
