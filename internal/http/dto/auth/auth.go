// Package auth contiene los DTOs de los endpoints /api/auth y del alta de
// tenants.
package auth

import "github.com/teamnest/teamnest/internal/http/dto/members"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse es la respuesta de login y refresh.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	RefreshExpiresIn int64  `json:"refresh_expires_in,omitempty"`
}

// RefreshRequest sirve para refresh y logout. El token puede venir en cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type MeResponse struct {
	User   members.UserDTO    `json:"user"`
	Tenant *members.TenantDTO `json:"tenant,omitempty"`
}

type RegisterTenantRequest struct {
	TenantName string `json:"tenant_name"`
	OwnerName  string `json:"owner_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type RegisterTenantResponse struct {
	Tenant members.TenantDTO `json:"tenant"`
	Owner  members.UserDTO   `json:"owner"`
}
