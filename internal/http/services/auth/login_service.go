package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/teamnest/teamnest/internal/audit"
	"github.com/teamnest/teamnest/internal/domain/repository"
	jwtx "github.com/teamnest/teamnest/internal/jwt"
	"github.com/teamnest/teamnest/internal/metrics"
	"github.com/teamnest/teamnest/internal/observability/logger"
	"github.com/teamnest/teamnest/internal/security/password"
	tokens "github.com/teamnest/teamnest/internal/security/token"
)

// LoginDeps contiene las dependencias para el login service.
type LoginDeps struct {
	Store  repository.Store
	Hasher *password.Hasher
	Issuer *jwtx.Issuer
	// Refresh nil deshabilita la emisión de refresh tokens.
	Refresh *tokens.RefreshService
}

type loginService struct {
	deps LoginDeps
}

func NewLoginService(deps LoginDeps) LoginService {
	return &loginService{deps: deps}
}

func (s *loginService) Login(ctx context.Context, email, plain string) (*TokenPair, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	email = repository.NormalizeEmail(email)
	if email == "" || strings.TrimSpace(plain) == "" {
		return nil, ErrMissingFields
	}

	u, err := s.verifyCredentials(ctx, email, plain)
	if err != nil {
		if err == ErrInvalidCredentials {
			metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
			audit.Log(ctx, audit.EventLoginFailed, logger.Email(email))
		} else {
			metrics.LoginAttempts.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	log = log.With(logger.UserID(u.ID.String()))

	if u.TenantID != nil {
		t, err := s.deps.Store.Tenants().GetByID(ctx, *u.TenantID)
		if err != nil {
			return nil, fmt.Errorf("load tenant: %w", err)
		}
		if !t.Active() {
			log.Info("login refused, tenant inactive", logger.TenantID(t.ID.String()))
			return nil, ErrTenantSuspended
		}
	}

	pair, err := issuePair(ctx, s.deps.Issuer, s.deps.Refresh, u)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	audit.Log(ctx, audit.EventLoginSucceeded, logger.UserID(u.ID.String()))
	return pair, nil
}

// verifyCredentials gasta un hash aun si el email no existe, para que el
// tiempo de respuesta no revele cuentas.
func (s *loginService) verifyCredentials(ctx context.Context, email, plain string) (*repository.User, error) {
	u, err := s.deps.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			s.deps.Hasher.Burn(plain)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !s.deps.Hasher.Verify(plain, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.Active() {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// issuePair emite access y, si refresh no es nil, un refresh nuevo.
func issuePair(ctx context.Context, iss *jwtx.Issuer, refresh *tokens.RefreshService, u *repository.User) (*TokenPair, error) {
	at, err := iss.IssueAccess(jwtx.SubjectFromUser(u))
	if err != nil {
		return nil, fmt.Errorf("issue access: %w", err)
	}
	metrics.TokensIssued.WithLabelValues("access").Inc()
	pair := &TokenPair{AccessToken: at.Token, ExpiresIn: at.ExpiresIn}
	if refresh == nil {
		return pair, nil
	}
	rt, err := refresh.Issue(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh: %w", err)
	}
	metrics.TokensIssued.WithLabelValues("refresh").Inc()
	pair.RefreshToken = rt.Raw
	pair.RefreshExpiresIn = rt.ExpiresIn
	pair.RefreshExpiresAt = rt.ExpiresAt
	return pair, nil
}
