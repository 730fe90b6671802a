// Package members contiene los controllers de /api/users y /api/roles.
package members

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
	dto "github.com/teamnest/teamnest/internal/http/dto/members"
	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	svc "github.com/teamnest/teamnest/internal/http/services/members"
	"github.com/teamnest/teamnest/internal/tenancy"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Controller maneja usuarios y roles del tenant del token.
type Controller struct {
	service *svc.Service
	scopes  *tenancy.Enforcer
}

func NewController(s *svc.Service, e *tenancy.Enforcer) *Controller {
	return &Controller{service: s, scopes: e}
}

// ListUsers maneja GET /api/users?limit=&offset=
func (c *Controller) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	users, err := c.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeMembersError(w, err)
		return
	}
	out := dto.ListUsersResponse{Users: make([]dto.UserDTO, 0, len(users)), Limit: limit, Offset: offset}
	for i := range users {
		out.Users = append(out.Users, dto.FromUser(&users[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// GetUser maneja GET /api/users/{id}. Un usuario de otro tenant es 404.
func (c *Controller) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("id"))
		return
	}
	u, err := c.scopes.Scope(r.Context()).Users().Get(r.Context(), id)
	if err != nil {
		writeMembersError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.FromUser(u))
}

// CreateUser maneja POST /api/users
func (c *Controller) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := helpers.ReadJSON(w, r, &req, false); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	u, err := c.service.CreateMember(r.Context(), svc.CreateMemberInput{Email: req.Email, Name: req.Name, Password: req.Password})
	if err != nil {
		writeMembersError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.FromUser(u))
}

// ListRoles maneja GET /api/roles
func (c *Controller) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := c.service.ListRoles(r.Context())
	if err != nil {
		writeMembersError(w, err)
		return
	}
	out := dto.ListRolesResponse{Roles: make([]dto.RoleDTO, 0, len(roles))}
	for i := range roles {
		out.Roles = append(out.Roles, dto.FromRole(&roles[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// CreateRole maneja POST /api/roles
func (c *Controller) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRoleRequest
	if err := helpers.ReadJSON(w, r, &req, false); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	role, err := c.service.CreateRole(r.Context(), req.Name)
	if err != nil {
		writeMembersError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.FromRole(role))
}

func writeMembersError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrWeakPassword):
		httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithDetail(strings.TrimPrefix(err.Error(), svc.ErrWeakPassword.Error()+": ")))
	case errors.Is(err, repository.ErrConflict):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("ya existe"))
	default:
		httperrors.WriteError(w, helpers.DomainError(err))
	}
}

func paging(r *http.Request) (limit, offset int, err error) {
	limit, offset = defaultLimit, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n <= 0 {
			return 0, 0, httperrors.ErrInvalidParameter.WithDetail("limit")
		}
		limit = min(n, maxLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 0 {
			return 0, 0, httperrors.ErrInvalidParameter.WithDetail("offset")
		}
		offset = n
	}
	return limit, offset, nil
}
