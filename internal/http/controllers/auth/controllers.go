// Package auth contiene los controllers de /api/auth y del alta de tenants.
package auth

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	svc "github.com/teamnest/teamnest/internal/http/services/auth"
	tokens "github.com/teamnest/teamnest/internal/security/token"
)

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Login    *LoginController
	Refresh  *RefreshController
	Logout   *LogoutController
	Password *PasswordController
	Me       *MeController
	Register *RegisterController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services, cookies helpers.CookieConfig) *Controllers {
	return &Controllers{
		Login:    NewLoginController(s.Login, cookies),
		Refresh:  NewRefreshController(s.Refresh, cookies),
		Logout:   NewLogoutController(s.Logout, cookies),
		Password: NewPasswordController(s.Password),
		Me:       NewMeController(s.Me),
		Register: NewRegisterController(s.Register),
	}
}

// writeAuthError mapea los sentinels de auth y tokens. Los errores de token
// llevan siempre el mismo mensaje para no distinguir causas.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
	case errors.Is(err, svc.ErrTenantSuspended):
		httperrors.WriteError(w, httperrors.ErrTenantSuspended)
	case errors.Is(err, tokens.ErrInvalidOrExpiredRefreshToken):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("refresh token inválido o expirado"))
	case errors.Is(err, tokens.ErrInvalidOrExpiredResetToken), errors.Is(err, tokens.ErrInactiveAccount):
		httperrors.WriteError(w, httperrors.ErrInvalidResetToken)
	case errors.Is(err, svc.ErrWeakPassword):
		httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(policyReasons(err, svc.ErrWeakPassword)))
	case errors.Is(err, svc.ErrTenantNameAlreadyExists):
		httperrors.WriteError(w, httperrors.ErrTenantNameTaken)
	case errors.Is(err, svc.ErrUserAlreadyExists):
		httperrors.WriteError(w, httperrors.ErrEmailAlreadyInUse)
	default:
		httperrors.WriteError(w, helpers.DomainError(err))
	}
}

func policyReasons(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
