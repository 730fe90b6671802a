package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/teamnest/teamnest/internal/http/middlewares"
)

// registerAuthRoutes registra /api/auth/* y el alta de tenants.
func registerAuthRoutes(api chi.Router, d Deps) {
	c := d.Auth
	public := api.With(mw.WithLogging())

	api.With(
		mw.WithRateLimit(mw.RateLimitConfig{Limiter: d.LoginLimiter, Route: "login", TrustedProxies: d.TrustedProxies}),
		mw.WithLogging(),
	).Post("/auth/login", c.Login.Login)

	api.With(
		mw.WithRateLimit(mw.RateLimitConfig{Limiter: d.ForgotLimiter, Route: "forgot", TrustedProxies: d.TrustedProxies}),
		mw.WithLogging(),
	).Post("/auth/forgot-password", c.Password.Forgot)

	public.Post("/auth/refresh", c.Refresh.Refresh)
	public.Post("/auth/logout", c.Logout.Logout)
	public.Post("/auth/reset-password", c.Password.Reset)
	public.Post("/tenants/register", c.Register.Register)

	authed(api, d).Get("/auth/me", c.Me.Me)
}
