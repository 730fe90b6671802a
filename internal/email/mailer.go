package email

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

// Mailer compone los correos del dominio y los entrega por un Sender.
type Mailer struct {
	Sender  Sender
	BaseURL string // ej: https://app.teamnest.io
	Now     func() time.Time
}

func NewMailer(s Sender, baseURL string) *Mailer {
	return &Mailer{Sender: s, BaseURL: strings.TrimRight(baseURL, "/"), Now: time.Now}
}

// SendPasswordReset envía el link con el secreto crudo.
func (m *Mailer) SendPasswordReset(ctx context.Context, u *repository.User, rawToken string, expiresAt time.Time) error {
	ttl := int(expiresAt.Sub(m.Now()).Round(time.Minute) / time.Minute)
	if ttl < 1 {
		ttl = 1
	}
	msg, err := resetTemplate.render(u.Email, ResetVars{
		Name:      u.Name,
		Link:      m.BaseURL + "/reset-password?token=" + url.QueryEscape(rawToken),
		TTLMinute: ttl,
	})
	if err != nil {
		return err
	}
	return m.Sender.Send(ctx, msg)
}

// SendWelcome avisa al owner que su tenant fue creado.
func (m *Mailer) SendWelcome(ctx context.Context, u *repository.User, tenantName string) error {
	msg, err := welcomeTemplate.render(u.Email, WelcomeVars{Name: u.Name, Tenant: tenantName, Link: m.BaseURL + "/login"})
	if err != nil {
		return err
	}
	return m.Sender.Send(ctx, msg)
}
