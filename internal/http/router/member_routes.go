package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/teamnest/teamnest/internal/http/middlewares"
)

// registerMemberRoutes registra /api/users y /api/roles. Leer requiere
// token; escribir requiere además uno de ManagerRoles.
func registerMemberRoutes(api chi.Router, d Deps) {
	if d.Members == nil {
		return
	}
	c := d.Members
	read := authed(api, d)
	write := read.With(mw.RequireAnyRole(d.ManagerRoles...))

	read.Get("/users", c.ListUsers)
	read.Get("/users/{id}", c.GetUser)
	read.Get("/roles", c.ListRoles)
	write.Post("/users", c.CreateUser)
	write.Post("/roles", c.CreateRole)
}
