package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

type refreshRepo struct{ v *view }

func (r refreshRepo) Create(_ context.Context, t *repository.RefreshToken) error {
	return r.v.with(func(st *state) error {
		for _, ex := range st.refresh {
			if ex.TokenHash == t.TokenHash {
				return repository.ErrConflict
			}
		}
		st.refresh[t.ID] = *t
		return nil
	})
}

func (r refreshRepo) GetByHash(_ context.Context, hash string) (*repository.RefreshToken, error) {
	var out *repository.RefreshToken
	err := r.v.with(func(st *state) error {
		for _, t := range st.refresh {
			if t.TokenHash == hash {
				c := t
				out = &c
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r refreshRepo) RevokeIfActive(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	ok := false
	err := r.v.with(func(st *state) error {
		t, found := st.refresh[id]
		if !found || t.RevokedAt != nil || !at.Before(t.ExpiresAt) {
			return nil
		}
		t.RevokedAt = &at
		st.refresh[id] = t
		ok = true
		return nil
	})
	return ok, err
}

func (r refreshRepo) Revoke(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.v.with(func(st *state) error {
		t, found := st.refresh[id]
		if !found || t.RevokedAt != nil {
			return nil
		}
		t.RevokedAt = &at
		st.refresh[id] = t
		return nil
	})
}

func (r refreshRepo) RevokeAllByUser(_ context.Context, userID uuid.UUID, at time.Time) (int, error) {
	n := 0
	err := r.v.with(func(st *state) error {
		for id, t := range st.refresh {
			if t.UserID == userID && t.RevokedAt == nil {
				t.RevokedAt = &at
				st.refresh[id] = t
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r refreshRepo) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	n := 0
	err := r.v.with(func(st *state) error {
		for id, t := range st.refresh {
			if !t.ExpiresAt.After(before) {
				delete(st.refresh, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

type resetRepo struct{ v *view }

func (r resetRepo) Create(_ context.Context, t *repository.PasswordResetToken) error {
	return r.v.with(func(st *state) error {
		for _, ex := range st.resets {
			if ex.TokenHash == t.TokenHash {
				return repository.ErrConflict
			}
		}
		st.resets[t.ID] = *t
		return nil
	})
}

// GetByHashForUpdate: el lock exclusivo del store ya serializa la tx.
func (r resetRepo) GetByHashForUpdate(ctx context.Context, hash string) (*repository.PasswordResetToken, error) {
	return r.GetByHash(ctx, hash)
}

func (r resetRepo) GetByHash(_ context.Context, hash string) (*repository.PasswordResetToken, error) {
	var out *repository.PasswordResetToken
	err := r.v.with(func(st *state) error {
		for _, t := range st.resets {
			if t.TokenHash == hash {
				c := t
				out = &c
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r resetRepo) MarkAllUnusedAsUsed(_ context.Context, userID uuid.UUID, at time.Time) (int, error) {
	n := 0
	err := r.v.with(func(st *state) error {
		for id, t := range st.resets {
			if t.UserID == userID && t.UsedAt == nil {
				t.UsedAt = &at
				st.resets[id] = t
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r resetRepo) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	n := 0
	err := r.v.with(func(st *state) error {
		for id, t := range st.resets {
			if !t.ExpiresAt.After(before) || (t.UsedAt != nil && !t.UsedAt.After(before)) {
				delete(st.resets, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
