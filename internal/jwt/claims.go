package jwt

import (
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// AccessClaims son las claims del access token.
//
//	iss, sub (email), iat, exp, jti, roles, user_id, tenant_id (solo si hay tenant)
type AccessClaims struct {
	Roles    []string `json:"roles"`
	UserID   string   `json:"user_id"`
	TenantID string   `json:"tenant_id,omitempty"`
	jwtv5.RegisteredClaims
}

// HasRole compara sin prefijo ROLE_ y sin distinguir mayúsculas.
func (c *AccessClaims) HasRole(name string) bool {
	name = normalizeRole(name)
	for _, r := range c.Roles {
		if strings.EqualFold(normalizeRole(r), name) {
			return true
		}
	}
	return false
}

func normalizeRole(r string) string {
	r = strings.TrimSpace(r)
	if len(r) >= 5 && strings.EqualFold(r[:5], "ROLE_") {
		r = r[5:]
	}
	return r
}
