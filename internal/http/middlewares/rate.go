package middlewares

import (
	"math"
	"net/http"
	"strconv"

	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	"github.com/teamnest/teamnest/internal/metrics"
	"github.com/teamnest/teamnest/internal/observability/logger"
	"github.com/teamnest/teamnest/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPOnlyRateKey usa solo RemoteAddr. No lee el body.
func IPOnlyRateKey(r *http.Request) string { return helpers.ClientIP(r) }

// RateLimitConfig configura WithRateLimit.
type RateLimitConfig struct {
	Limiter rate.Limiter
	// KeyFunc por defecto: TrustedProxies.ClientIP.
	KeyFunc RateKeyFunc
	// TrustedProxies habilita X-Forwarded-For cuando el peer es uno de ellos.
	TrustedProxies helpers.TrustedProxies
	// Route etiqueta la key y la métrica (ej: "login").
	Route string
}

// WithRateLimit responde 429 cuando el limiter niega. Si el limiter falla el
// request pasa.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = cfg.TrustedProxies.ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.Route + "|" + cfg.KeyFunc(r)
			res, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limit error", logger.Layer("middleware"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				metrics.RateLimited.WithLabelValues(cfg.Route).Inc()
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				}
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
