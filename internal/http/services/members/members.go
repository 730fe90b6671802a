// Package members gestiona usuarios y roles dentro del tenant del request.
// Todo pasa por tenancy.Scope: sin tenant ligado las lecturas ven toda la
// plataforma y las escrituras fallan con tenancy.ErrTenantNotResolved.
package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teamnest/teamnest/internal/audit"
	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/observability/logger"
	"github.com/teamnest/teamnest/internal/security/password"
	"github.com/teamnest/teamnest/internal/tenancy"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrWeakPassword  = errors.New("password does not meet policy")
)

// Deps contiene las dependencias del servicio.
type Deps struct {
	Enforcer   *tenancy.Enforcer
	Hasher     *password.Hasher
	Policy     password.Policy
	MemberRole string // default MEMBER
}

// Service opera miembros y roles del tenant.
type Service struct {
	d Deps
}

func NewService(d Deps) *Service {
	if d.MemberRole == "" {
		d.MemberRole = "MEMBER"
	}
	return &Service{d: d}
}

// CreateMemberInput son los datos de un miembro nuevo.
type CreateMemberInput struct {
	Email    string
	Name     string
	Password string
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]repository.User, error) {
	return s.d.Enforcer.Scope(ctx).Users().List(ctx, limit, offset)
}

// CreateMember crea un usuario del tenant con el rol de miembro.
func (s *Service) CreateMember(ctx context.Context, in CreateMemberInput) (*repository.User, error) {
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Name) == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	sc := s.d.Enforcer.Scope(ctx)
	if _, err := sc.RequireTenant(); err != nil {
		return nil, err
	}
	if ok, reasons := s.d.Policy.Validate(in.Password); !ok {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(reasons, ","))
	}
	hash, err := s.d.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := sc.Users().Create(ctx, in.Email, in.Name, hash, s.d.MemberRole)
	if err != nil {
		return nil, err
	}
	audit.Log(ctx, audit.EventMemberCreated, logger.UserID(u.ID.String()))
	return u, nil
}

// ListRoles incluye los roles de plataforma.
func (s *Service) ListRoles(ctx context.Context) ([]repository.Role, error) {
	return s.d.Enforcer.Scope(ctx).Roles().List(ctx)
}

func (s *Service) CreateRole(ctx context.Context, name string) (*repository.Role, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingFields
	}
	r, err := s.d.Enforcer.Scope(ctx).Roles().Create(ctx, name)
	if err != nil {
		return nil, err
	}
	audit.Log(ctx, audit.EventRoleCreated, logger.String("role", r.Name))
	return r, nil
}
