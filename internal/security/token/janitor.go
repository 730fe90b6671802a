package tokens

import (
	"context"
	"time"

	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/observability/logger"
)

// Janitor borra periódicamente refresh y reset tokens que ya no sirven.
type Janitor struct {
	Store    repository.Store
	Interval time.Duration
	// Grace conserva tokens vencidos un tiempo para auditoría.
	Grace time.Duration
	Now   func() time.Time
}

// PurgeExpired corre una pasada.
func (j *Janitor) PurgeExpired(ctx context.Context) (refresh, reset int, err error) {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	before := now().UTC().Add(-j.Grace)
	if refresh, err = j.Store.RefreshTokens().DeleteExpired(ctx, before); err != nil {
		return 0, 0, err
	}
	if reset, err = j.Store.ResetTokens().DeleteExpired(ctx, before); err != nil {
		return refresh, 0, err
	}
	return refresh, reset, nil
}

// Run bloquea hasta que ctx se cancele.
func (j *Janitor) Run(ctx context.Context) error {
	interval := j.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	log := logger.L().With(logger.Component("token_janitor"))
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			rf, rs, err := j.PurgeExpired(ctx)
			if err != nil {
				log.Warn("purge failed", logger.Err(err))
				continue
			}
			if rf+rs > 0 {
				log.Info("expired tokens purged", logger.Int("refresh", rf), logger.Int("reset", rs))
			}
		}
	}
}
