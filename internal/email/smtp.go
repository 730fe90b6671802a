package email

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/teamnest/teamnest/internal/observability/logger"
)

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

// build arma el mensaje go-mail. Separado de Send para poder testearlo.
func (s *SMTPSender) build(m Message) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", s.From)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)

	// multipart/alternative: texto primero, html como alternativa
	switch {
	case m.TextBody != "" && m.HTMLBody != "":
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case m.HTMLBody != "":
		msg.SetBody("text/html", m.HTMLBody)
	default:
		msg.SetBody("text/plain", m.TextBody)
	}
	return msg
}

func (s *SMTPSender) dialer() *mail.Dialer {
	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{ServerName: s.Host, InsecureSkipVerify: s.InsecureSkipVerify}
	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	default:
		// auto: go-mail negocia STARTTLS si el server lo ofrece
	}
	return d
}

// Send envía el correo. go-mail no acepta context: el timeout lo fija el
// Dialer (10s por default).
func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	log := logger.From(ctx).With(logger.Component("smtp"), logger.Email(m.To))
	if err := s.dialer().DialAndSend(s.build(m)); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Info("email sent")
	return nil
}
