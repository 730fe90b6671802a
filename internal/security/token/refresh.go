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

// ErrInvalidOrExpiredRefreshToken cubre secreto desconocido, revocado,
// vencido, dueño inactivo o tenant del dueño inactivo. El caller no debe
// distinguir entre ellos.
var ErrInvalidOrExpiredRefreshToken = errors.New("invalid or expired refresh token")

// RefreshDeps contiene las dependencias de RefreshService.
type RefreshDeps struct {
	Store repository.Store
	TTL   time.Duration // default 720h
	Now   func() time.Time
}

// RefreshService emite, canjea, rota y revoca refresh tokens opacos.
type RefreshService struct {
	store repository.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewRefreshService(d RefreshDeps) *RefreshService {
	if d.TTL <= 0 {
		d.TTL = 30 * 24 * time.Hour
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &RefreshService{store: d.Store, ttl: d.TTL, now: d.Now}
}

// IssuedRefresh es el secreto crudo recién emitido. Raw no se guarda.
type IssuedRefresh struct {
	Raw       string
	ExpiresAt time.Time
	ExpiresIn int64
}

// TTL retorna la vida configurada de los refresh tokens.
func (s *RefreshService) TTL() time.Duration { return s.ttl }

// Issue emite un refresh para userID y persiste solo su hash.
func (s *RefreshService) Issue(ctx context.Context, userID uuid.UUID) (IssuedRefresh, error) {
	return s.issue(ctx, s.store, userID)
}

func (s *RefreshService) issue(ctx context.Context, st repository.Store, userID uuid.UUID) (IssuedRefresh, error) {
	raw, err := GenerateOpaqueToken(RefreshTokenBytes)
	if err != nil {
		return IssuedRefresh{}, fmt.Errorf("generate refresh: %w", err)
	}
	now := s.now().UTC()
	rt := &repository.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: SHA256Base64URL(raw),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := st.RefreshTokens().Create(ctx, rt); err != nil {
		return IssuedRefresh{}, fmt.Errorf("persist refresh: %w", err)
	}
	return IssuedRefresh{Raw: raw, ExpiresAt: rt.ExpiresAt, ExpiresIn: int64(s.ttl / time.Second)}, nil
}

// Redeem valida el secreto y retorna el dueño y el registro.
func (s *RefreshService) Redeem(ctx context.Context, raw string) (*repository.User, *repository.RefreshToken, error) {
	return s.redeem(ctx, s.store, raw)
}

func (s *RefreshService) redeem(ctx context.Context, st repository.Store, raw string) (*repository.User, *repository.RefreshToken, error) {
	if blank(raw) {
		return nil, nil, ErrInvalidOrExpiredRefreshToken
	}
	rt, err := st.RefreshTokens().GetByHash(ctx, SHA256Base64URL(raw))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, ErrInvalidOrExpiredRefreshToken
		}
		return nil, nil, fmt.Errorf("lookup refresh: %w", err)
	}
	if !rt.ValidAt(s.now()) {
		return nil, nil, ErrInvalidOrExpiredRefreshToken
	}
	u, err := st.Users().GetByID(ctx, repository.Unscoped(), rt.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, ErrInvalidOrExpiredRefreshToken
		}
		return nil, nil, fmt.Errorf("lookup refresh owner: %w", err)
	}
	if !u.Active() {
		return nil, nil, ErrInvalidOrExpiredRefreshToken
	}
	if u.TenantID != nil {
		t, err := st.Tenants().GetByID(ctx, *u.TenantID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, nil, ErrInvalidOrExpiredRefreshToken
			}
			return nil, nil, fmt.Errorf("lookup refresh tenant: %w", err)
		}
		if !t.Active() {
			return nil, nil, ErrInvalidOrExpiredRefreshToken
		}
	}
	return u, rt, nil
}

// Rotate canjea raw, lo revoca de forma condicional y emite uno nuevo.
// De N rotaciones concurrentes del mismo secreto exactamente una gana.
func (s *RefreshService) Rotate(ctx context.Context, raw string) (*repository.User, IssuedRefresh, error) {
	log := logger.From(ctx).With(logger.Layer("security"), logger.Component("refresh"), logger.Op("Rotate"))

	var (
		owner  *repository.User
		issued IssuedRefresh
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		u, rt, err := s.redeem(ctx, tx, raw)
		if err != nil {
			return err
		}
		ok, err := tx.RefreshTokens().RevokeIfActive(ctx, rt.ID, s.now().UTC())
		if err != nil {
			return fmt.Errorf("revoke refresh: %w", err)
		}
		if !ok {
			log.Debug("refresh lost rotation race", logger.UserID(u.ID.String()))
			return ErrInvalidOrExpiredRefreshToken
		}
		issued, err = s.issue(ctx, tx, u.ID)
		if err != nil {
			return err
		}
		owner = u
		return nil
	})
	if err != nil {
		return nil, IssuedRefresh{}, err
	}
	return owner, issued, nil
}

// Revoke marca el token como revocado. Idempotente.
func (s *RefreshService) Revoke(ctx context.Context, rt *repository.RefreshToken) error {
	if rt == nil || rt.RevokedAt != nil {
		return nil
	}
	return s.store.RefreshTokens().Revoke(ctx, rt.ID, s.now().UTC())
}

// RevokeIfPresent revoca el token de raw si existe. Entrada vacía o
// desconocida no es error (logout).
func (s *RefreshService) RevokeIfPresent(ctx context.Context, raw string) error {
	if blank(raw) {
		return nil
	}
	rt, err := s.store.RefreshTokens().GetByHash(ctx, SHA256Base64URL(raw))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	return s.Revoke(ctx, rt)
}

// RevokeAllForUser revoca todas las sesiones del usuario.
func (s *RefreshService) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.RefreshTokens().RevokeAllByUser(ctx, userID, s.now().UTC())
}
