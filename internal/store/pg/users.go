package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

type userRepo struct{ q querier }

const userColumns = `u.id, u.tenant_id, u.email, u.name, u.password_hash, u.status, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (repository.User, error) {
	var (
		u      repository.User
		status string
	)
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Name, &u.PasswordHash, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return repository.User{}, err
	}
	u.Status = repository.Status(status)
	return u, nil
}

func (r *userRepo) Create(ctx context.Context, u *repository.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO app_user (id, tenant_id, email, name, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.TenantID, u.Email, u.Name, u.PasswordHash, string(u.Status), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return mapErr(err)
	}
	for _, role := range u.Roles {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO user_role (user_id, role_id) VALUES ($1, $2)`, u.ID, role.ID); err != nil {
			return fmt.Errorf("assign role %s: %w", role.Name, mapErr(err))
		}
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, f repository.TenantFilter, id uuid.UUID) (*repository.User, error) {
	pred, args := tenantPredicate(f, "u.tenant_id", []any{id})
	return r.getOne(ctx, `SELECT `+userColumns+` FROM app_user u WHERE u.id = $1 AND `+pred, args...)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM app_user u WHERE u.email = $1`,
		repository.NormalizeEmail(email))
}

func (r *userRepo) getOne(ctx context.Context, sql string, args ...any) (*repository.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapErr(err)
	}
	users := []repository.User{u}
	if err := r.attachRoles(ctx, users); err != nil {
		return nil, err
	}
	return &users[0], nil
}

func (r *userRepo) List(ctx context.Context, f repository.TenantFilter, limit, offset int) ([]repository.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	pred, args := tenantPredicate(f, "u.tenant_id", nil)
	args = append(args, limit, offset)
	sql := fmt.Sprintf(`SELECT %s FROM app_user u WHERE %s ORDER BY u.created_at, u.id LIMIT $%d OFFSET $%d`,
		userColumns, pred, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	var out []repository.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, mapErr(err)
		}
		out = append(out, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	if err := r.attachRoles(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachRoles carga los roles de todos los usuarios en una sola query.
func (r *userRepo) attachRoles(ctx context.Context, users []repository.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(users))
	idx := make(map[uuid.UUID]int, len(users))
	for i, u := range users {
		ids[i] = u.ID
		idx[u.ID] = i
	}
	rows, err := r.q.Query(ctx, `
		SELECT ur.user_id, `+roleColumns+`
		FROM user_role ur JOIN role r ON r.id = ur.role_id
		WHERE ur.user_id = ANY($1)
		ORDER BY r.name`, ids)
	if err != nil {
		return mapErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			uid   uuid.UUID
			role  repository.Role
			scope string
		)
		if err := rows.Scan(&uid, &role.ID, &role.Name, &scope, &role.TenantID, &role.CreatedAt); err != nil {
			return mapErr(err)
		}
		role.Scope = repository.RoleScope(scope)
		i := idx[uid]
		users[i].Roles = append(users[i].Roles, role)
	}
	return mapErr(rows.Err())
}

func (r *userRepo) LockForUpdate(ctx context.Context, id uuid.UUID) error {
	var one int
	err := r.q.QueryRow(ctx, `SELECT 1 FROM app_user WHERE id = $1 FOR UPDATE`, id).Scan(&one)
	return mapErr(err)
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE app_user SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, at)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
