// Package router arma el árbol de rutas HTTP sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/teamnest/teamnest/internal/http/controllers/auth"
	healthctrl "github.com/teamnest/teamnest/internal/http/controllers/health"
	membersctrl "github.com/teamnest/teamnest/internal/http/controllers/members"
	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	mw "github.com/teamnest/teamnest/internal/http/middlewares"
	"github.com/teamnest/teamnest/internal/rate"
)

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Auth    *authctrl.Controllers
	Members *membersctrl.Controller
	Health  *healthctrl.Controller

	Verifier     mw.AccessVerifier
	AccessCookie string
	Tenant       mw.TenantConfig

	// Limiters opcionales (nil = sin límite).
	LoginLimiter  rate.Limiter
	ForgotLimiter rate.Limiter

	// TrustedProxies cuyos X-Forwarded-For cuentan para el rate limit.
	TrustedProxies helpers.TrustedProxies

	// ManagerRoles pueden crear usuarios y roles del tenant.
	ManagerRoles []string

	// Metrics sirve /metrics; nil lo omite.
	Metrics http.Handler
}

// New retorna el handler raíz.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithMetrics(),
		mw.WithSecurityHeaders(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, d)
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.WithNoStore())
		registerAuthRoutes(api, d)
		registerMemberRoutes(api, d)
	})
	return r
}

func registerHealthRoutes(r chi.Router, d Deps) {
	r.With(mw.WithNoStore(), mw.WithLogging()).Get("/readyz", d.Health.Ready)
	r.With(mw.WithCacheControl("public, max-age=300")).Get("/.well-known/jwks.json", d.Health.JWKS)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}
}

// authed es la cadena de toda ruta autenticada: token, tenant del token y
// logging con user_id y tenant_id ya resueltos.
func authed(r chi.Router, d Deps) chi.Router {
	return r.With(
		mw.RequireAuth(d.Verifier, d.AccessCookie),
		mw.WithTenantContext(d.Tenant),
		mw.WithLogging(),
	)
}
