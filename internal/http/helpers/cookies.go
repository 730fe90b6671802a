package helpers

import (
	"net/http"
	"strings"
	"time"
)

// CookieConfig describe las cookies de sesión (access y refresh).
type CookieConfig struct {
	AccessName  string
	RefreshName string
	HTTPOnly    bool
	Secure      bool
	SameSite    http.SameSite
	Path        string
	Domain      string
}

func (c CookieConfig) build(name, value string, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.Path,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
	if ck.Path == "" {
		ck.Path = "/"
	}
	if strings.TrimSpace(c.Domain) != "" {
		ck.Domain = c.Domain
	}
	if ttl > 0 {
		ck.MaxAge = int(ttl / time.Second)
	}
	return ck
}

// SetAccess escribe la cookie del access token.
func (c CookieConfig) SetAccess(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, c.build(c.AccessName, token, ttl))
}

// SetRefresh escribe la cookie del refresh token.
func (c CookieConfig) SetRefresh(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, c.build(c.RefreshName, token, ttl))
}

// Clear borra ambas cookies: valor vacío y Max-Age=0, con los mismos
// atributos con que se emitieron.
func (c CookieConfig) Clear(w http.ResponseWriter) {
	for _, name := range []string{c.AccessName, c.RefreshName} {
		ck := c.build(name, "", 0)
		ck.MaxAge = -1
		http.SetCookie(w, ck)
	}
}

// CookieValue retorna el valor de la cookie name o "".
func CookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(ck.Value)
}
