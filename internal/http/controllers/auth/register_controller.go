package auth

import (
	"net/http"

	dto "github.com/teamnest/teamnest/internal/http/dto/auth"
	"github.com/teamnest/teamnest/internal/http/dto/members"
	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	svc "github.com/teamnest/teamnest/internal/http/services/auth"
)

// RegisterController maneja POST /api/tenants/register
type RegisterController struct {
	service svc.RegisterService
}

func NewRegisterController(s svc.RegisterService) *RegisterController {
	return &RegisterController{service: s}
}

func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterTenantRequest
	if err := helpers.ReadJSON(w, r, &req, false); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	res, err := c.service.RegisterTenant(r.Context(), svc.RegisterTenantInput{
		TenantName: req.TenantName,
		OwnerName:  req.OwnerName,
		Email:      req.Email,
		Password:   req.Password,
	})
	if err != nil {
		writeAuthError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.RegisterTenantResponse{
		Tenant: members.FromTenant(res.Tenant),
		Owner:  members.FromUser(res.Owner),
	})
}
