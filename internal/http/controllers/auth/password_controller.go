package auth

import (
	"net/http"

	dto "github.com/teamnest/teamnest/internal/http/dto/auth"
	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	svc "github.com/teamnest/teamnest/internal/http/services/auth"
	"github.com/teamnest/teamnest/internal/observability/logger"
)

const forgotMessage = "Si el email está registrado, recibirás un enlace para restablecer tu contraseña."

// PasswordController maneja forgot-password y reset-password.
type PasswordController struct {
	service svc.PasswordService
}

func NewPasswordController(s svc.PasswordService) *PasswordController {
	return &PasswordController{service: s}
}

// Forgot responde 200 con el mismo mensaje pase lo que pase.
func (c *PasswordController) Forgot(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("PasswordController.Forgot"))

	var req dto.ForgotPasswordRequest
	if err := helpers.ReadJSON(w, r, &req, true); err != nil {
		log.Debug("forgot body ignored", logger.Err(err))
	} else if err := c.service.Forgot(r.Context(), req.Email); err != nil {
		log.Warn("forgot password failed", logger.Err(err))
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: forgotMessage})
}

func (c *PasswordController) Reset(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := helpers.ReadJSON(w, r, &req, false); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if err := c.service.Reset(r.Context(), req.Token, req.NewPassword); err != nil {
		logger.From(r.Context()).Debug("reset password failed", logger.Layer("controller"), logger.Err(err))
		writeAuthError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "contraseña actualizada"})
}
