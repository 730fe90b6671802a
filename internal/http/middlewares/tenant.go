package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/observability/logger"
	"github.com/teamnest/teamnest/internal/tenantctx"
)

// TenantStatusChecker retorna el estado de un tenant. Lo implementa
// *cache.TenantStatus.
type TenantStatusChecker interface {
	Status(ctx context.Context, id uuid.UUID) (repository.Status, error)
}

// TenantConfig configura WithTenantContext.
type TenantConfig struct {
	Policy tenantctx.Policy
	// Status, si no es nil, corta con 403 a tenants inexistentes o inactivos.
	Status TenantStatusChecker
}

// WithTenantContext abre un Holder por request, liga el tenant de la claim
// tenant_id y lo limpia al terminar pase lo que pase. Sin claims (rutas
// públicas) el holder queda vacío.
func WithTenantContext(cfg TenantConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, h := tenantctx.NewContext(r.Context())
			defer h.Clear()

			if c := GetClaims(ctx); c != nil {
				if err := tenantctx.Resolve(h, c.TenantID, cfg.Policy); err != nil {
					logger.From(ctx).Warn("tenant claim rejected", logger.Layer("middleware"), logger.Err(err))
					httperrors.WriteError(w, httperrors.ErrTokenInvalid)
					return
				}
			}

			if id, ok := h.Get(); ok && cfg.Status != nil {
				st, err := cfg.Status.Status(ctx, id)
				switch {
				case errors.Is(err, repository.ErrNotFound):
					httperrors.WriteError(w, httperrors.ErrTenantSuspended)
					return
				case err != nil:
					httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
					return
				case st != repository.StatusActive:
					httperrors.WriteError(w, httperrors.ErrTenantSuspended)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
