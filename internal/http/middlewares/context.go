package middlewares

import (
	"context"

	jwtx "github.com/teamnest/teamnest/internal/jwt"
)

type ctxKey string

const (
	ctxClaimsKey    ctxKey = "claims"
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta las claims verificadas en el contexto.
func WithClaims(ctx context.Context, c *jwtx.AccessClaims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, c)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetClaims retorna las claims del access token o nil si la ruta no pasó
// por RequireAuth.
func GetClaims(ctx context.Context) *jwtx.AccessClaims {
	c, _ := ctx.Value(ctxClaimsKey).(*jwtx.AccessClaims)
	return c
}

// GetUserID retorna el user_id del token o "".
func GetUserID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}
