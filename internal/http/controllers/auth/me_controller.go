package auth

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
	dto "github.com/teamnest/teamnest/internal/http/dto/auth"
	"github.com/teamnest/teamnest/internal/http/dto/members"
	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	mw "github.com/teamnest/teamnest/internal/http/middlewares"
	svc "github.com/teamnest/teamnest/internal/http/services/auth"
)

// MeController maneja GET /api/auth/me
type MeController struct {
	service svc.MeService
}

func NewMeController(s svc.MeService) *MeController {
	return &MeController{service: s}
}

func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaims(r.Context())
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrTokenInvalid)
		return
	}
	res, err := c.service.Me(r.Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httperrors.WriteError(w, httperrors.ErrUnauthorized)
			return
		}
		httperrors.WriteError(w, helpers.DomainError(err))
		return
	}
	out := dto.MeResponse{User: members.FromUser(res.User)}
	if res.Tenant != nil {
		t := members.FromTenant(res.Tenant)
		out.Tenant = &t
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}
