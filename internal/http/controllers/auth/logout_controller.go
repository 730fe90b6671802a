package auth

import (
	"net/http"

	dto "github.com/teamnest/teamnest/internal/http/dto/auth"
	"github.com/teamnest/teamnest/internal/http/helpers"
	svc "github.com/teamnest/teamnest/internal/http/services/auth"
	"github.com/teamnest/teamnest/internal/observability/logger"
)

// LogoutController maneja POST /api/auth/logout
type LogoutController struct {
	service svc.LogoutService
	cookies helpers.CookieConfig
}

func NewLogoutController(s svc.LogoutService, cookies helpers.CookieConfig) *LogoutController {
	return &LogoutController{service: s, cookies: cookies}
}

// Logout responde 200 siempre y borra ambas cookies.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	raw, err := refreshFromRequest(w, r, c.cookies.RefreshName)
	if err != nil {
		log.Debug("logout body ignored", logger.Err(err))
		raw = helpers.CookieValue(r, c.cookies.RefreshName)
	}
	if raw != "" {
		if err := c.service.Logout(r.Context(), raw); err != nil {
			log.Warn("logout revoke failed", logger.Err(err))
		}
	}
	c.cookies.Clear(w)
	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "sesión cerrada"})
}
