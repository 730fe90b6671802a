package email

import (
	"context"

	"github.com/teamnest/teamnest/internal/observability/logger"
)

// LogSender no envía nada: loguea el texto plano. Solo para dev, el cuerpo
// puede contener links de reset.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, m Message) error {
	logger.From(ctx).Info("email (log driver)",
		logger.Component("email"),
		logger.Email(m.To),
		logger.String("subject", m.Subject),
		logger.String("body", m.TextBody),
	)
	return nil
}
