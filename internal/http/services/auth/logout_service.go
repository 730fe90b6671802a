package auth

import (
	"context"
	"strings"

	"github.com/teamnest/teamnest/internal/audit"
	"github.com/teamnest/teamnest/internal/observability/logger"
	tokens "github.com/teamnest/teamnest/internal/security/token"
)

type logoutService struct {
	tokens *tokens.RefreshService
}

// NewLogoutService crea el servicio de logout. t nil hace de Logout un no-op.
func NewLogoutService(t *tokens.RefreshService) LogoutService {
	return &logoutService{tokens: t}
}

// Logout revoca raw si existe. Secretos desconocidos no son error.
func (s *logoutService) Logout(ctx context.Context, raw string) error {
	if s.tokens == nil || strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := s.tokens.RevokeIfPresent(ctx, raw); err != nil {
		logger.From(ctx).Warn("logout revoke failed", logger.Layer("service"), logger.Op("Logout"), logger.Err(err))
		return err
	}
	audit.Log(ctx, audit.EventLogout)
	return nil
}
