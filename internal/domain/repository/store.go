package repository

import "context"

// Store agrupa los repositorios sobre un mismo backend.
type Store interface {
	Users() UserRepository
	Tenants() TenantRepository
	Roles() RoleRepository
	RefreshTokens() RefreshTokenRepository
	ResetTokens() PasswordResetTokenRepository

	// InTx ejecuta fn dentro de una transacción. Si fn retorna error se
	// hace rollback. Los repos de tx solo son válidos dentro de fn.
	InTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close()
}
