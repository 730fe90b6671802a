package tokens_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/store/memory"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func seedUser(t *testing.T, st *memory.Store, email string) *repository.User {
	t.Helper()
	ctx := context.Background()
	tenant, err := repository.NewTenant("Tenant "+email, time.Now())
	require.NoError(t, err)
	require.NoError(t, st.Tenants().Create(ctx, tenant))
	role, err := repository.NewRole("MEMBER", repository.ScopeTenant, &tenant.ID)
	require.NoError(t, err)
	require.NoError(t, st.Roles().Create(ctx, role))
	u, err := repository.NewTenantUser(tenant.ID, email, "Test", "$argon2id$old", *role)
	require.NoError(t, err)
	require.NoError(t, st.Users().Create(ctx, u))
	return u
}

type capturedReset struct {
	to  string
	raw string
	exp time.Time
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []capturedReset
	err  error
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, u *repository.User, raw string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, capturedReset{to: u.Email, raw: raw, exp: exp})
	return f.err
}

func (f *fakeNotifier) last(t *testing.T) capturedReset {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}
