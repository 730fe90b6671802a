package pg

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

type tenantRepo struct{ q querier }

func (r *tenantRepo) Create(ctx context.Context, t *repository.Tenant) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO tenant (id, name, status, created_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Name, string(t.Status), t.CreatedAt)
	return mapErr(err)
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*repository.Tenant, error) {
	var (
		t      repository.Tenant
		status string
	)
	err := r.q.QueryRow(ctx,
		`SELECT id, name, status, created_at FROM tenant WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &status, &t.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	t.Status = repository.Status(status)
	return &t, nil
}

func (r *tenantRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenant WHERE lower(name) = lower($1))`,
		strings.TrimSpace(name)).Scan(&exists)
	return exists, mapErr(err)
}
