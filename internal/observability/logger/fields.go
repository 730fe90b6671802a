package logger

import (
	"go.uber.org/zap"
)

// HTTP

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

// Negocio

func TenantID(v string) zap.Field { return zap.String("tenant_id", v) }
func UserID(v string) zap.Field   { return zap.String("user_id", v) }

// Email enmascara la parte local: "jo***@acme.io".
func Email(v string) zap.Field { return zap.String("email", maskEmail(v)) }

// KID identifica la clave de firma activa.
func KID(v string) zap.Field { return zap.String("kid", v) }

// Estructura

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }

// Err es un alias de zap.Error para que los call-sites no importen zap.
func Err(err error) zap.Field { return zap.Error(err) }

func Count(n int) zap.Field { return zap.Int("count", n) }

func maskEmail(e string) string {
	at := -1
	for i := 0; i < len(e); i++ {
		if e[i] == '@' {
			at = i
			break
		}
	}
	if at <= 0 {
		return "***"
	}
	keep := 2
	if at < keep {
		keep = at
	}
	return e[:keep] + "***" + e[at:]
}

func Int(k string, v int) zap.Field       { return zap.Int(k, v) }
func String(k string, v string) zap.Field { return zap.String(k, v) }
