package helpers

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// BearerToken resuelve el access token: primero Authorization: Bearer,
// después la cookie cookieName. "" si no hay ninguno.
func BearerToken(r *http.Request, cookieName string) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) > 7 && strings.EqualFold(ah[:7], "bearer ") {
		if tok := strings.TrimSpace(ah[7:]); tok != "" {
			return tok
		}
	}
	return CookieValue(r, cookieName)
}

// TrustedProxies son las redes cuyos headers X-Forwarded-For / X-Real-IP
// se aceptan. Vacío = solo RemoteAddr.
type TrustedProxies []*net.IPNet

// ParseTrustedProxies acepta CIDRs o IPs sueltas (se toman como /32 o /128).
func ParseTrustedProxies(list []string) (TrustedProxies, error) {
	var out TrustedProxies
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if !strings.Contains(s, "/") {
			ip := net.ParseIP(s)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %q: invalid ip", s)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(s)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Contains indica si ip pertenece a alguna red de confianza.
func (t TrustedProxies) Contains(ip string) bool {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return false
	}
	for _, n := range t {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// ClientIP extrae la IP del cliente. Los headers de forwarding solo cuentan
// si RemoteAddr es un proxy de confianza; en X-Forwarded-For se toma el
// primer salto (desde la derecha) que no sea proxy.
func (t TrustedProxies) ClientIP(r *http.Request) string {
	remote := remoteHost(r)
	if !t.Contains(remote) {
		return remote
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		hops := strings.Split(xf, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				break
			}
			if !t.Contains(hop) {
				return hop
			}
		}
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xr) != nil {
		return xr
	}
	return remote
}

// ClientIP sin proxies de confianza: siempre RemoteAddr.
func ClientIP(r *http.Request) string { return remoteHost(r) }

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
