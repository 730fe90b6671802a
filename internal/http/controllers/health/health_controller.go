// Package health expone readiness y el JWKS.
package health

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/teamnest/teamnest/internal/http/errors"
	"github.com/teamnest/teamnest/internal/http/helpers"
	jwtx "github.com/teamnest/teamnest/internal/jwt"
	"github.com/teamnest/teamnest/internal/observability/logger"
)

// Pinger es cualquier dependencia que readyz debe chequear.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller maneja /readyz y /.well-known/jwks.json.
type Controller struct {
	checks  map[string]Pinger
	keys    *jwtx.KeyPair
	version string
}

func NewController(keys *jwtx.KeyPair, version string, checks map[string]Pinger) *Controller {
	return &Controller{checks: checks, keys: keys, version: version}
}

type readyResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	KID     string            `json:"kid"`
	Checks  map[string]string `json:"checks"`
}

// Ready responde 200 si todas las dependencias contestan, 503 si no.
func (c *Controller) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	out := readyResponse{Status: "ok", Version: c.version, KID: c.keys.KID(), Checks: map[string]string{}}
	for name, p := range c.checks {
		if err := p.Ping(ctx); err != nil {
			logger.From(r.Context()).Warn("readiness check failed", logger.Component(name), logger.Err(err))
			out.Checks[name] = "down"
			out.Status = "degraded"
			continue
		}
		out.Checks[name] = "up"
	}
	if out.Status != "ok" {
		helpers.WriteJSON(w, http.StatusServiceUnavailable, out)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// JWKS sirve la clave pública. El par es inmutable, se puede cachear.
func (c *Controller) JWKS(w http.ResponseWriter, r *http.Request) {
	body := c.keys.JWKSJSON()
	if body == nil {
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
