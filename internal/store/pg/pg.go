// Package pg implementa repository.Store sobre PostgreSQL con pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/observability/logger"
	"github.com/teamnest/teamnest/internal/store"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.Config) (repository.Store, error) {
	s, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		res, err := s.Migrate(ctx)
		if err != nil {
			s.Close()
			return nil, err
		}
		logger.L().Info("migrations applied",
			logger.Component("store.pg"), logger.Count(len(res.Applied)))
	}
	return s, nil
}

// querier lo cumplen *pgxpool.Pool y pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store es el backend PostgreSQL. Dentro de InTx, q es la transacción.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// Migrate aplica las migraciones embebidas pendientes.
func (s *Store) Migrate(ctx context.Context) (*MigrationResult, error) {
	return NewMigrator().Run(ctx, s.pool)
}

// Open crea el pool y verifica conectividad.
func Open(ctx context.Context, cfg store.Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("pg: dsn required")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool, q: pool}, nil
}

func (s *Store) Users() repository.UserRepository                 { return &userRepo{q: s.q} }
func (s *Store) Tenants() repository.TenantRepository             { return &tenantRepo{q: s.q} }
func (s *Store) Roles() repository.RoleRepository                 { return &roleRepo{q: s.q} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return &refreshRepo{q: s.q} }
func (s *Store) ResetTokens() repository.PasswordResetTokenRepository {
	return &resetRepo{q: s.q}
}

// InTx abre una transacción (o reusa la actual si ya está en una).
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Store{pool: s.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close cierra el pool. No-op dentro de una transacción.
func (s *Store) Close() {
	if !s.inTx {
		s.pool.Close()
	}
}

// mapErr traduce errores de pgx a errores de dominio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", repository.ErrNotFound, pgErr.ConstraintName)
		case "23514": // check_violation
			return fmt.Errorf("%w: %s", repository.ErrInvalidInput, pgErr.ConstraintName)
		}
	}
	return err
}
