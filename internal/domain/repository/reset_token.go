package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken es un token de reset de un solo uso.
type PasswordResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// UsableAt: no usado y now < expires_at.
func (t *PasswordResetToken) UsableAt(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// PasswordResetTokenRepository define operaciones sobre reset tokens.
type PasswordResetTokenRepository interface {
	// Create inserta el token. ErrConflict si token_hash ya existe.
	Create(ctx context.Context, t *PasswordResetToken) error

	// GetByHash busca por hash sin bloquear. ErrNotFound si no existe.
	GetByHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error)

	// GetByHashForUpdate busca por hash bloqueando la fila hasta el fin de
	// la transacción (SELECT ... FOR UPDATE en pg). ErrNotFound si no existe.
	GetByHashForUpdate(ctx context.Context, tokenHash string) (*PasswordResetToken, error)

	// MarkAllUnusedAsUsed invalida todos los tokens sin usar del usuario.
	MarkAllUnusedAsUsed(ctx context.Context, userID uuid.UUID, at time.Time) (int, error)

	// DeleteExpired borra tokens vencidos o ya usados antes de before.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
