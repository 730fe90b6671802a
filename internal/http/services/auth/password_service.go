package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/teamnest/teamnest/internal/audit"
	"github.com/teamnest/teamnest/internal/metrics"
	"github.com/teamnest/teamnest/internal/security/password"
	tokens "github.com/teamnest/teamnest/internal/security/token"
)

// PasswordDeps contiene las dependencias para olvido/reset.
type PasswordDeps struct {
	Resets *tokens.ResetService
	Hasher *password.Hasher
	Policy password.Policy
}

type passwordService struct {
	deps PasswordDeps
}

func NewPasswordService(deps PasswordDeps) PasswordService {
	return &passwordService{deps: deps}
}

// Forgot emite un token de reset. El controller no debe exponer el
// resultado: usuario inexistente e inactivo ya son no-op aquí.
func (s *passwordService) Forgot(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if err := s.deps.Resets.Request(ctx, email); err != nil {
		return err
	}
	metrics.TokensIssued.WithLabelValues("reset").Inc()
	audit.Log(ctx, audit.EventResetRequested)
	return nil
}

// Reset valida la política, hashea y canjea el token.
func (s *passwordService) Reset(ctx context.Context, raw, newPassword string) error {
	if strings.TrimSpace(raw) == "" || newPassword == "" {
		return ErrMissingFields
	}
	if err := checkPolicy(s.deps.Policy, newPassword); err != nil {
		return err
	}
	hash, err := s.deps.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.deps.Resets.Consume(ctx, raw, hash); err != nil {
		return err
	}
	audit.Log(ctx, audit.EventResetCompleted)
	return nil
}

// checkPolicy envuelve ErrWeakPassword con las razones.
func checkPolicy(p password.Policy, plain string) error {
	if ok, reasons := p.Validate(plain); !ok {
		return fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(reasons, ","))
	}
	return nil
}
