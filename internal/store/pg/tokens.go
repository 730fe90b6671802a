package pg

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

type refreshRepo struct{ q querier }

func (r *refreshRepo) Create(ctx context.Context, t *repository.RefreshToken) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO refresh_token (id, user_id, token_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.UserID, t.TokenHash, t.IssuedAt, t.ExpiresAt)
	return mapErr(err)
}

func (r *refreshRepo) GetByHash(ctx context.Context, hash string) (*repository.RefreshToken, error) {
	var t repository.RefreshToken
	err := r.q.QueryRow(ctx, `
		SELECT id, user_id, token_hash, issued_at, expires_at, revoked_at
		FROM refresh_token WHERE token_hash = $1`, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt, &t.RevokedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

// RevokeIfActive: el UPDATE condicional es el punto de linearización de
// la rotación. Con dos tx concurrentes la segunda espera el lock de fila y
// re-evalúa el WHERE, por lo que afecta 0 filas.
func (r *refreshRepo) RevokeIfActive(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE refresh_token SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL AND expires_at > $2`, id, at)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *refreshRepo) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.q.Exec(ctx,
		`UPDATE refresh_token SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`, id, at)
	return mapErr(err)
}

func (r *refreshRepo) RevokeAllByUser(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE refresh_token SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`, userID, at)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *refreshRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM refresh_token WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}

type resetRepo struct{ q querier }

func (r *resetRepo) Create(ctx context.Context, t *repository.PasswordResetToken) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO password_reset_token (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt)
	return mapErr(err)
}

func (r *resetRepo) GetByHash(ctx context.Context, hash string) (*repository.PasswordResetToken, error) {
	return r.getByHash(ctx, hash, "")
}

func (r *resetRepo) GetByHashForUpdate(ctx context.Context, hash string) (*repository.PasswordResetToken, error) {
	return r.getByHash(ctx, hash, " FOR UPDATE")
}

func (r *resetRepo) getByHash(ctx context.Context, hash, lock string) (*repository.PasswordResetToken, error) {
	var t repository.PasswordResetToken
	err := r.q.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_reset_token WHERE token_hash = $1`+lock, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *resetRepo) MarkAllUnusedAsUsed(ctx context.Context, userID uuid.UUID, at time.Time) (int, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE password_reset_token SET used_at = $2 WHERE user_id = $1 AND used_at IS NULL`, userID, at)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *resetRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM password_reset_token WHERE expires_at <= $1 OR used_at <= $1`, before)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}
