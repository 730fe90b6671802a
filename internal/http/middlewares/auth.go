package middlewares

import (
	"errors"
	"net/http"

	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	jwtx "github.com/teamnest/teamnest/internal/jwt"
	"github.com/teamnest/teamnest/internal/observability/logger"
)

// AccessVerifier valida un access token. Lo implementa *jwt.Verifier.
type AccessVerifier interface {
	Verify(token string) (*jwtx.AccessClaims, error)
}

// RequireAuth resuelve el bearer (header y después cookieName), lo verifica
// y deja las claims en el contexto. Cualquier falla es 401 sin detalle de la
// causa para el cliente.
func RequireAuth(v AccessVerifier, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := helpers.BearerToken(r, cookieName)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				httperrors.WriteError(w, httperrors.ErrTokenMissing)
				return
			}
			claims, err := v.Verify(raw)
			if err != nil {
				logger.From(r.Context()).Debug("access token rejected", logger.Layer("middleware"), logger.String("reason", reason(err)))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, jwtx.ErrExpiredToken):
		return "expired"
	case errors.Is(err, jwtx.ErrInvalidSignature):
		return "signature"
	case errors.Is(err, jwtx.ErrMalformedToken):
		return "malformed"
	default:
		return "claims"
	}
}

// RequireAnyRole deja pasar si el token trae alguno de roles. Debe ir
// después de RequireAuth.
func RequireAnyRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := GetClaims(r.Context())
			if c == nil {
				httperrors.WriteError(w, httperrors.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if c.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httperrors.WriteError(w, httperrors.ErrForbidden)
		})
	}
}
