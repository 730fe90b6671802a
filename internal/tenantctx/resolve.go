package tenantctx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrMalformedTenantClaim: la claim tenant_id no es un UUID.
var ErrMalformedTenantClaim = errors.New("malformed tenant_id claim")

// Policy decide qué hacer con una claim tenant_id que no parsea.
type Policy string

const (
	// PolicyIgnore sigue sin tenant ligado (las escrituras tenant-scoped
	// fallarán luego con tenant no resuelto).
	PolicyIgnore Policy = "ignore"
	// PolicyReject corta el request como no autenticado.
	PolicyReject Policy = "reject"
)

// ParsePolicy acepta "ignore" (default) o "reject".
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyIgnore:
		return PolicyIgnore, nil
	case PolicyReject:
		return PolicyReject, nil
	}
	return "", fmt.Errorf("unknown tenant claim policy %q", s)
}

// Resolve liga el tenant de la claim si el holder todavía no tiene uno.
// claim vacía significa usuario de plataforma: no se liga nada.
func Resolve(h *Holder, claim string, p Policy) error {
	if h == nil {
		return nil
	}
	if _, bound := h.Get(); bound {
		return nil
	}
	claim = strings.TrimSpace(claim)
	if claim == "" {
		return nil
	}
	id, err := uuid.Parse(claim)
	if err != nil || id == uuid.Nil {
		if p == PolicyReject {
			return ErrMalformedTenantClaim
		}
		return nil
	}
	h.Set(id)
	return nil
}
