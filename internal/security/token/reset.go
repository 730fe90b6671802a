package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/observability/logger"
)

var (
	// ErrInvalidOrExpiredResetToken: desconocido, usado o vencido.
	ErrInvalidOrExpiredResetToken = errors.New("invalid or expired reset token")
	// ErrInactiveAccount: el token es válido pero el dueño no está ACTIVE.
	ErrInactiveAccount = errors.New("account inactive")
)

// ResetNotifier entrega el secreto crudo al usuario (email).
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, u *repository.User, rawToken string, expiresAt time.Time) error
}

// ResetDeps contiene las dependencias de ResetService.
type ResetDeps struct {
	Store    repository.Store
	TTL      time.Duration // default 15m
	Notifier ResetNotifier
	// Sessions, si no es nil, revoca los refresh del usuario tras un reset.
	Sessions *RefreshService
	Now      func() time.Time
}

// ResetService maneja tokens de reset de un solo uso.
type ResetService struct {
	d ResetDeps
}

func NewResetService(d ResetDeps) *ResetService {
	if d.TTL <= 0 {
		d.TTL = 15 * time.Minute
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &ResetService{d: d}
}

// Request emite un token para email. Usuario inexistente o inactivo es un
// no-op silencioso. Cualquier token previo sin usar queda invalidado.
func (s *ResetService) Request(ctx context.Context, email string) error {
	log := logger.From(ctx).With(logger.Layer("security"), logger.Component("reset"), logger.Op("Request"))

	u, err := s.d.Store.Users().GetByEmail(ctx, repository.NormalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if !u.Active() {
		log.Debug("reset requested for inactive user", logger.UserID(u.ID.String()))
		return nil
	}

	raw, err := GenerateOpaqueToken(ResetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset: %w", err)
	}
	now := s.d.Now().UTC()
	tok := &repository.PasswordResetToken{
		ID:        uuid.New(),
		UserID:    u.ID,
		TokenHash: SHA256Base64URL(raw),
		ExpiresAt: now.Add(s.d.TTL),
		CreatedAt: now,
	}
	err = s.d.Store.InTx(ctx, func(tx repository.Store) error {
		// con el usuario bloqueado queda a lo sumo un token vivo por usuario.
		if err := tx.Users().LockForUpdate(ctx, u.ID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if _, err := tx.ResetTokens().MarkAllUnusedAsUsed(ctx, u.ID, now); err != nil {
			return fmt.Errorf("invalidate previous: %w", err)
		}
		return tx.ResetTokens().Create(ctx, tok)
	})
	if err != nil {
		return fmt.Errorf("persist reset: %w", err)
	}

	if s.d.Notifier != nil {
		if err := s.d.Notifier.SendPasswordReset(ctx, u, raw, tok.ExpiresAt); err != nil {
			return fmt.Errorf("deliver reset: %w", err)
		}
	}
	log.Info("reset token issued", logger.UserID(u.ID.String()))
	return nil
}

// Consume canjea raw y persiste newPasswordHash. El token y cualquier otro
// token sin usar del usuario quedan usados.
func (s *ResetService) Consume(ctx context.Context, raw, newPasswordHash string) error {
	if blank(raw) {
		return ErrInvalidOrExpiredResetToken
	}
	if newPasswordHash == "" {
		return fmt.Errorf("password hash: %w", repository.ErrInvalidInput)
	}
	log := logger.From(ctx).With(logger.Layer("security"), logger.Component("reset"), logger.Op("Consume"))

	hash := SHA256Base64URL(raw)
	var userID uuid.UUID
	err := s.d.Store.InTx(ctx, func(tx repository.Store) error {
		now := s.d.Now().UTC()
		// orden de locks usuario -> token, el mismo que Request.
		peek, err := tx.ResetTokens().GetByHash(ctx, hash)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrInvalidOrExpiredResetToken
			}
			return err
		}
		if err := tx.Users().LockForUpdate(ctx, peek.UserID); err != nil {
			if repository.IsNotFound(err) {
				return ErrInvalidOrExpiredResetToken
			}
			return err
		}
		tok, err := tx.ResetTokens().GetByHashForUpdate(ctx, hash)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrInvalidOrExpiredResetToken
			}
			return err
		}
		if !tok.UsableAt(now) {
			return ErrInvalidOrExpiredResetToken
		}
		u, err := tx.Users().GetByID(ctx, repository.Unscoped(), tok.UserID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrInvalidOrExpiredResetToken
			}
			return err
		}
		if !u.Active() {
			return ErrInactiveAccount
		}
		if err := tx.Users().UpdatePasswordHash(ctx, u.ID, newPasswordHash, now); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if _, err := tx.ResetTokens().MarkAllUnusedAsUsed(ctx, u.ID, now); err != nil {
			return fmt.Errorf("mark used: %w", err)
		}
		userID = u.ID
		return nil
	})
	if err != nil {
		return err
	}

	if s.d.Sessions != nil {
		if n, err := s.d.Sessions.RevokeAllForUser(ctx, userID); err != nil {
			log.Warn("revoke sessions after reset failed", logger.UserID(userID.String()), logger.Err(err))
		} else {
			log.Info("sessions revoked after reset", logger.UserID(userID.String()), logger.Count(n))
		}
	}
	return nil
}
