// Package members contiene los DTOs de usuarios, roles y tenants.
package members

import (
	"time"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

// UserDTO es la vista pública de un usuario. Nunca incluye el hash.
type UserDTO struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Roles     []string  `json:"roles"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type RoleDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Scope    string `json:"scope"`
	TenantID string `json:"tenant_id,omitempty"`
}

type TenantDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type CreateRoleRequest struct {
	Name string `json:"name"`
}

type ListUsersResponse struct {
	Users  []UserDTO `json:"users"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type ListRolesResponse struct {
	Roles []RoleDTO `json:"roles"`
}

func FromUser(u *repository.User) UserDTO {
	d := UserDTO{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Roles:     u.RoleNames(),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
	if u.TenantID != nil {
		d.TenantID = u.TenantID.String()
	}
	return d
}

func FromRole(r *repository.Role) RoleDTO {
	d := RoleDTO{ID: r.ID.String(), Name: r.Name, Scope: string(r.Scope)}
	if r.TenantID != nil {
		d.TenantID = r.TenantID.String()
	}
	return d
}

func FromTenant(t *repository.Tenant) TenantDTO {
	return TenantDTO{ID: t.ID.String(), Name: t.Name, Status: string(t.Status), CreatedAt: t.CreatedAt}
}
