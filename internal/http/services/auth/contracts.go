// Package auth contiene los servicios de autenticación: login, refresh,
// logout, reset de contraseña, perfil propio y alta de tenants.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

// TokenPair es lo que reciben login y refresh. RefreshToken vacío si los
// refresh tokens están deshabilitados.
type TokenPair struct {
	AccessToken      string
	ExpiresIn        int64
	RefreshToken     string
	RefreshExpiresIn int64
	RefreshExpiresAt time.Time
}

// LoginService autentica con email/password.
type LoginService interface {
	Login(ctx context.Context, email, password string) (*TokenPair, error)
}

// RefreshService rota un refresh token y emite un access nuevo.
type RefreshService interface {
	Refresh(ctx context.Context, rawRefresh string) (*TokenPair, error)
}

// LogoutService revoca el refresh presentado. Idempotente.
type LogoutService interface {
	Logout(ctx context.Context, rawRefresh string) error
}

// PasswordService maneja olvido y reset de contraseña.
type PasswordService interface {
	Forgot(ctx context.Context, email string) error
	Reset(ctx context.Context, rawToken, newPassword string) error
}

// MeResult es el perfil del usuario autenticado.
type MeResult struct {
	User   *repository.User
	Tenant *repository.Tenant // nil para usuarios de plataforma
}

// MeService resuelve el perfil del sujeto del token.
type MeService interface {
	Me(ctx context.Context, userID uuid.UUID) (*MeResult, error)
}

// RegisterTenantInput son los datos del alta self-service.
type RegisterTenantInput struct {
	TenantName string
	OwnerName  string
	Email      string
	Password   string
}

// RegisterTenantResult es el tenant creado y su owner.
type RegisterTenantResult struct {
	Tenant *repository.Tenant
	Owner  *repository.User
}

// RegisterService da de alta tenants.
type RegisterService interface {
	RegisterTenant(ctx context.Context, in RegisterTenantInput) (*RegisterTenantResult, error)
}

// Services agrupa los servicios del dominio auth.
type Services struct {
	Login    LoginService
	Refresh  RefreshService
	Logout   LogoutService
	Password PasswordService
	Me       MeService
	Register RegisterService
}
