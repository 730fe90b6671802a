package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/teamnest/teamnest/internal/audit"
	jwtx "github.com/teamnest/teamnest/internal/jwt"
	"github.com/teamnest/teamnest/internal/metrics"
	"github.com/teamnest/teamnest/internal/observability/logger"
	tokens "github.com/teamnest/teamnest/internal/security/token"
)

// RefreshDeps contiene las dependencias para el refresh service.
type RefreshDeps struct {
	Issuer *jwtx.Issuer
	// Tokens nil significa refresh deshabilitado: todo refresh es inválido.
	Tokens *tokens.RefreshService
}

type refreshService struct {
	deps RefreshDeps
}

func NewRefreshService(deps RefreshDeps) RefreshService {
	return &refreshService{deps: deps}
}

// Refresh canjea raw una sola vez y devuelve un par nuevo. Errores del
// secreto salen siempre como tokens.ErrInvalidOrExpiredRefreshToken.
func (s *refreshService) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	if s.deps.Tokens == nil {
		return nil, tokens.ErrInvalidOrExpiredRefreshToken
	}
	u, next, err := s.deps.Tokens.Rotate(ctx, raw)
	if err != nil {
		if errors.Is(err, tokens.ErrInvalidOrExpiredRefreshToken) {
			metrics.RefreshFailures.Inc()
			audit.Log(ctx, audit.EventRefreshRejected)
		}
		return nil, err
	}
	at, err := s.deps.Issuer.IssueAccess(jwtx.SubjectFromUser(u))
	if err != nil {
		return nil, fmt.Errorf("issue access: %w", err)
	}
	metrics.TokensIssued.WithLabelValues("access").Inc()
	metrics.TokensIssued.WithLabelValues("refresh").Inc()
	audit.Log(ctx, audit.EventRefreshRotated, logger.UserID(u.ID.String()))

	return &TokenPair{
		AccessToken:      at.Token,
		ExpiresIn:        at.ExpiresIn,
		RefreshToken:     next.Raw,
		RefreshExpiresIn: next.ExpiresIn,
		RefreshExpiresAt: next.ExpiresAt,
	}, nil
}
