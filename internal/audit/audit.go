// Package audit registra eventos de seguridad (login, refresh, reset,
// alta de tenant) como logs estructurados en el canal "audit".
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/teamnest/teamnest/internal/observability/logger"
)

const (
	EventLoginSucceeded   = "auth.login.succeeded"
	EventLoginFailed      = "auth.login.failed"
	EventRefreshRotated   = "auth.refresh.rotated"
	EventRefreshRejected  = "auth.refresh.rejected"
	EventLogout           = "auth.logout"
	EventResetRequested   = "auth.password_reset.requested"
	EventResetCompleted   = "auth.password_reset.completed"
	EventTenantRegistered = "tenant.registered"
	EventMemberCreated    = "tenant.member.created"
	EventRoleCreated      = "tenant.role.created"
)

// Log escribe event con fields usando el logger del request. Nunca recibe
// secretos crudos ni hashes.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).Named("audit").Info(event, append(fields, zap.String("event", event))...)
}
