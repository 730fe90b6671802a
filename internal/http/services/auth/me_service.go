package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/tenancy"
)

type meService struct {
	store    repository.Store
	enforcer *tenancy.Enforcer
}

func NewMeService(st repository.Store, e *tenancy.Enforcer) MeService {
	return &meService{store: st, enforcer: e}
}

// Me lee el usuario a través del scope del request: un token cuyo tenant
// no coincide con el del usuario da ErrNotFound.
func (s *meService) Me(ctx context.Context, userID uuid.UUID) (*MeResult, error) {
	sc := s.enforcer.Scope(ctx)
	u, err := sc.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := &MeResult{User: u}
	if u.TenantID != nil {
		t, err := s.store.Tenants().GetByID(ctx, *u.TenantID)
		if err != nil {
			return nil, fmt.Errorf("load tenant: %w", err)
		}
		res.Tenant = t
	}
	return res, nil
}
