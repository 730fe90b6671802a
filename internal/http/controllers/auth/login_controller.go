package auth

import (
	"net/http"
	"time"

	dto "github.com/teamnest/teamnest/internal/http/dto/auth"
	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	svc "github.com/teamnest/teamnest/internal/http/services/auth"
	"github.com/teamnest/teamnest/internal/observability/logger"
)

// LoginController maneja POST /api/auth/login
type LoginController struct {
	service svc.LoginService
	cookies helpers.CookieConfig
}

func NewLoginController(s svc.LoginService, cookies helpers.CookieConfig) *LoginController {
	return &LoginController{service: s, cookies: cookies}
}

func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if err := helpers.ReadJSON(w, r, &req, false); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	pair, err := c.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeAuthError(w, err)
		return
	}
	writeTokens(w, c.cookies, pair)
}

// writeTokens escribe cookies y cuerpo para login y refresh.
func writeTokens(w http.ResponseWriter, cookies helpers.CookieConfig, pair *svc.TokenPair) {
	cookies.SetAccess(w, pair.AccessToken, time.Duration(pair.ExpiresIn)*time.Second)
	if pair.RefreshToken != "" {
		cookies.SetRefresh(w, pair.RefreshToken, time.Duration(pair.RefreshExpiresIn)*time.Second)
	}
	helpers.WriteJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken:      pair.AccessToken,
		TokenType:        "Bearer",
		ExpiresIn:        pair.ExpiresIn,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresIn: pair.RefreshExpiresIn,
	})
}
