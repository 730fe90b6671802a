package auth

import (
	"net/http"
	"strings"

	dto "github.com/teamnest/teamnest/internal/http/dto/auth"
	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	svc "github.com/teamnest/teamnest/internal/http/services/auth"
	"github.com/teamnest/teamnest/internal/observability/logger"
)

// RefreshController maneja POST /api/auth/refresh
type RefreshController struct {
	service svc.RefreshService
	cookies helpers.CookieConfig
}

func NewRefreshController(s svc.RefreshService, cookies helpers.CookieConfig) *RefreshController {
	return &RefreshController{service: s, cookies: cookies}
}

// Refresh toma el token del body y, si falta, de la cookie.
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	raw, err := refreshFromRequest(w, r, c.cookies.RefreshName)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if raw == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refresh_token requerido"))
		return
	}

	pair, err := c.service.Refresh(r.Context(), raw)
	if err != nil {
		log.Debug("refresh failed", logger.Err(err))
		writeAuthError(w, err)
		return
	}
	writeTokens(w, c.cookies, pair)
}

// refreshFromRequest lee {refresh_token} opcional y cae a la cookie.
func refreshFromRequest(w http.ResponseWriter, r *http.Request, cookieName string) (string, error) {
	var req dto.RefreshRequest
	if err := helpers.ReadJSON(w, r, &req, true); err != nil {
		return "", err
	}
	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		return raw, nil
	}
	return helpers.CookieValue(r, cookieName), nil
}
