package pg

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

type roleRepo struct{ q querier }

const roleColumns = `r.id, r.name, r.scope, r.tenant_id, r.created_at`

func scanRole(row pgx.Row) (repository.Role, error) {
	var (
		r     repository.Role
		scope string
	)
	if err := row.Scan(&r.ID, &r.Name, &scope, &r.TenantID, &r.CreatedAt); err != nil {
		return repository.Role{}, err
	}
	r.Scope = repository.RoleScope(scope)
	return r, nil
}

func (r *roleRepo) Create(ctx context.Context, role *repository.Role) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO role (id, name, scope, tenant_id) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		role.ID, role.Name, string(role.Scope), role.TenantID).Scan(&role.CreatedAt)
	return mapErr(err)
}

func (r *roleRepo) FindByName(ctx context.Context, f repository.TenantFilter, name string, scope repository.RoleScope) (*repository.Role, error) {
	pred, args := tenantPredicate(f, "r.tenant_id", []any{repository.NormalizeRoleName(name), string(scope)})
	row := r.q.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM role r WHERE r.name = $1 AND r.scope = $2 AND `+pred+` LIMIT 1`,
		args...)
	role, err := scanRole(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return &role, nil
}

func (r *roleRepo) List(ctx context.Context, f repository.TenantFilter) ([]repository.Role, error) {
	pred, args := tenantPredicate(f, "r.tenant_id", nil)
	rows, err := r.q.Query(ctx,
		`SELECT `+roleColumns+` FROM role r WHERE `+pred+` ORDER BY r.name, r.scope`, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []repository.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, role)
	}
	return out, mapErr(rows.Err())
}
