package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshToken es un refresh persistido. Solo se guarda el hash del secreto.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// ValidAt: no revocado y now < expires_at.
func (t *RefreshToken) ValidAt(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// RefreshTokenRepository define operaciones sobre refresh tokens.
type RefreshTokenRepository interface {
	// Create inserta el token. ErrConflict si token_hash ya existe.
	Create(ctx context.Context, t *RefreshToken) error

	// GetByHash retorna ErrNotFound si no existe.
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RevokeIfActive revoca de forma condicional (revoked_at IS NULL AND
	// expires_at > at). Retorna false si otra operación ganó la carrera.
	RevokeIfActive(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// Revoke marca revoked_at si todavía no lo estaba. Idempotente.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error

	// RevokeAllByUser revoca todos los tokens activos de un usuario.
	RevokeAllByUser(ctx context.Context, userID uuid.UUID, at time.Time) (int, error)

	// DeleteExpired borra tokens con expires_at <= before.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
