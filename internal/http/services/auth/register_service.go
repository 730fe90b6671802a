package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teamnest/teamnest/internal/audit"
	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/observability/logger"
	"github.com/teamnest/teamnest/internal/security/password"
	"github.com/teamnest/teamnest/internal/tenancy"
	"github.com/teamnest/teamnest/internal/tenantctx"
)

// WelcomeNotifier envía el mail de bienvenida. Lo implementa *email.Mailer.
type WelcomeNotifier interface {
	SendWelcome(ctx context.Context, u *repository.User, tenantName string) error
}

// RegisterDeps contiene las dependencias del alta de tenants.
type RegisterDeps struct {
	Store      repository.Store
	Hasher     *password.Hasher
	Policy     password.Policy
	OwnerRole  string // default OWNER
	MemberRole string // default MEMBER
	Welcome    WelcomeNotifier
	Now        func() time.Time
}

type registerService struct {
	deps RegisterDeps
}

func NewRegisterService(deps RegisterDeps) RegisterService {
	if deps.OwnerRole == "" {
		deps.OwnerRole = "OWNER"
	}
	if deps.MemberRole == "" {
		deps.MemberRole = "MEMBER"
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &registerService{deps: deps}
}

// RegisterTenant crea en una sola transacción el tenant, sus roles OWNER y
// MEMBER y el usuario owner. El mail de bienvenida sale después del commit y
// su falla no deshace nada.
func (s *registerService) RegisterTenant(ctx context.Context, in RegisterTenantInput) (*RegisterTenantResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("RegisterTenant"),
	)

	in.TenantName = strings.TrimSpace(in.TenantName)
	in.OwnerName = strings.TrimSpace(in.OwnerName)
	in.Email = repository.NormalizeEmail(in.Email)
	if in.TenantName == "" || in.OwnerName == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if err := checkPolicy(s.deps.Policy, in.Password); err != nil {
		return nil, err
	}
	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var res RegisterTenantResult
	err = s.deps.Store.InTx(ctx, func(tx repository.Store) error {
		exists, err := tx.Tenants().ExistsByName(ctx, in.TenantName)
		if err != nil {
			return err
		}
		if exists {
			return ErrTenantNameAlreadyExists
		}
		if _, err := tx.Users().GetByEmail(ctx, in.Email); err == nil {
			return ErrUserAlreadyExists
		} else if !repository.IsNotFound(err) {
			return err
		}

		t, err := repository.NewTenant(in.TenantName, s.deps.Now())
		if err != nil {
			return err
		}
		if err := tx.Tenants().Create(ctx, t); err != nil {
			if repository.IsConflict(err) {
				return ErrTenantNameAlreadyExists
			}
			return err
		}

		// El resto se escribe con el tenant recién creado ligado, por el
		// mismo camino que cualquier escritura tenant-scoped.
		tctx := tenantctx.WithTenant(ctx, t.ID)
		sc := tenancy.ScopeFor(tctx, tx)
		for _, name := range []string{s.deps.OwnerRole, s.deps.MemberRole} {
			if _, err := sc.Roles().Create(tctx, name); err != nil {
				return fmt.Errorf("create role %s: %w", name, err)
			}
		}
		owner, err := sc.Users().Create(tctx, in.Email, in.OwnerName, hash, s.deps.OwnerRole)
		if err != nil {
			if repository.IsConflict(err) {
				return ErrUserAlreadyExists
			}
			return err
		}
		res.Tenant, res.Owner = t, owner
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrTenantNameAlreadyExists) && !errors.Is(err, ErrUserAlreadyExists) {
			log.Error("register tenant failed", logger.Err(err))
		}
		return nil, err
	}

	audit.Log(ctx, audit.EventTenantRegistered,
		logger.TenantID(res.Tenant.ID.String()),
		logger.UserID(res.Owner.ID.String()),
	)
	if s.deps.Welcome != nil {
		if err := s.deps.Welcome.SendWelcome(ctx, res.Owner, res.Tenant.Name); err != nil {
			log.Warn("welcome email failed", logger.TenantID(res.Tenant.ID.String()), logger.Err(err))
		}
	}
	return &res, nil
}
