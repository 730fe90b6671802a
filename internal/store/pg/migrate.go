package pg

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/teamnest/teamnest/migrations/postgres"
)

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

// Formato de archivo: {version}_{name}.sql (ej: 0001_tenancy.sql)
var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Migrator aplica las migraciones embebidas.
type Migrator struct {
	fsys embed.FS
	dir  string
}

// NewMigrator usa las migraciones de migrations/postgres.
func NewMigrator() *Migrator {
	return &Migrator{fsys: migrations.FS, dir: migrations.Dir}
}

// Parse lee y ordena las migraciones por versión.
func (m *Migrator) Parse() ([]Migration, error) {
	var out []Migration
	err := fs.WalkDir(m.fsys, m.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		match := migrationFilePattern.FindStringSubmatch(path.Base(p))
		if match == nil {
			return nil
		}
		version, _ := strconv.Atoi(match[1])
		content, err := m.fsys.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		out = append(out, Migration{Version: version, Name: match[2], SQL: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", out[i].Version)
		}
	}
	return out, nil
}

// Run aplica las migraciones pendientes, cada una en su transacción.
func (m *Migrator) Run(ctx context.Context, pool *pgxpool.Pool) (*MigrationResult, error) {
	start := time.Now()
	res := &MigrationResult{}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			version    INT PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`); err != nil {
		return res, fmt.Errorf("creating migrations table: %w", err)
	}

	applied := map[int]bool{}
	rows, err := pool.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return res, fmt.Errorf("reading applied migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return res, fmt.Errorf("reading applied migrations: %w", err)
	}
	for _, v := range versions {
		applied[int(v)] = true
	}

	migs, err := m.Parse()
	if err != nil {
		return res, fmt.Errorf("parsing migrations: %w", err)
	}
	for _, mig := range migs {
		if applied[mig.Version] {
			res.Skipped = append(res.Skipped, mig.Version)
			continue
		}
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.SQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO _migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("applying migration %d_%s: %w", mig.Version, mig.Name, err)
		}
		res.Applied = append(res.Applied, mig.Version)
	}
	res.Duration = time.Since(start)
	return res, nil
}
