package tenancy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/store/memory"
	"github.com/teamnest/teamnest/internal/tenancy"
	"github.com/teamnest/teamnest/internal/tenantctx"
)

type fixture struct {
	store   *memory.Store
	enf     *tenancy.Enforcer
	acme    *repository.Tenant
	globex  *repository.Tenant
	ctxAcme context.Context
	ctxGlob context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	f := &fixture{store: st, enf: tenancy.NewEnforcer(st)}

	var err error
	f.acme, err = repository.NewTenant("Acme", time.Now())
	require.NoError(t, err)
	f.globex, err = repository.NewTenant("Globex", time.Now())
	require.NoError(t, err)
	require.NoError(t, st.Tenants().Create(ctx, f.acme))
	require.NoError(t, st.Tenants().Create(ctx, f.globex))

	admin, err := repository.NewRole("PLATFORM_ADMIN", repository.ScopePlatform, nil)
	require.NoError(t, err)
	require.NoError(t, st.Roles().Create(ctx, admin))

	f.ctxAcme = tenantctx.WithTenant(ctx, f.acme.ID)
	f.ctxGlob = tenantctx.WithTenant(ctx, f.globex.ID)
	for _, c := range []context.Context{f.ctxAcme, f.ctxGlob} {
		_, err := f.enf.Scope(c).Roles().Create(c, "MEMBER")
		require.NoError(t, err)
	}
	return f
}

func TestScopedUsers_IsolatedByTenant(t *testing.T) {
	t.Parallel()
	f := setup(t)

	ana, err := f.enf.Scope(f.ctxAcme).Users().Create(f.ctxAcme, "ana@acme.io", "Ana", "h", "MEMBER")
	require.NoError(t, err)
	require.Equal(t, f.acme.ID, *ana.TenantID)
	require.Equal(t, []string{"MEMBER"}, ana.RoleNames())

	bob, err := f.enf.Scope(f.ctxGlob).Users().Create(f.ctxGlob, "bob@globex.io", "Bob", "h", "MEMBER")
	require.NoError(t, err)

	acmeUsers, err := f.enf.Scope(f.ctxAcme).Users().List(f.ctxAcme, 50, 0)
	require.NoError(t, err)
	require.Len(t, acmeUsers, 1)
	require.Equal(t, ana.ID, acmeUsers[0].ID)

	_, err = f.enf.Scope(f.ctxAcme).Users().Get(f.ctxAcme, bob.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	got, err := f.enf.Scope(f.ctxGlob).Users().Get(f.ctxGlob, bob.ID)
	require.NoError(t, err)
	require.Equal(t, "bob@globex.io", got.Email)
}

func TestScopedUsers_PlatformViewSeesAll(t *testing.T) {
	t.Parallel()
	f := setup(t)
	_, err := f.enf.Scope(f.ctxAcme).Users().Create(f.ctxAcme, "ana@acme.io", "Ana", "h")
	require.NoError(t, err)
	_, err = f.enf.Scope(f.ctxGlob).Users().Create(f.ctxGlob, "bob@globex.io", "Bob", "h")
	require.NoError(t, err)

	all, err := f.enf.Scope(context.Background()).Users().List(context.Background(), 50, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestScopedWrites_RequireTenant(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx := context.Background()

	_, err := f.enf.Scope(ctx).Users().Create(ctx, "x@acme.io", "X", "h")
	require.ErrorIs(t, err, tenancy.ErrTenantNotResolved)

	_, err = f.enf.Scope(ctx).Roles().Create(ctx, "EDITOR")
	require.ErrorIs(t, err, tenancy.ErrTenantNotResolved)

	_, err = f.store.Users().GetByEmail(ctx, "x@acme.io")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScopedRoles_IncludePlatformRoles(t *testing.T) {
	t.Parallel()
	f := setup(t)
	roles, err := f.enf.Scope(f.ctxAcme).Roles().List(f.ctxAcme)
	require.NoError(t, err)

	var names []string
	for _, r := range roles {
		names = append(names, string(r.Scope)+":"+r.Name)
		if r.TenantID != nil {
			require.Equal(t, f.acme.ID, *r.TenantID)
		}
	}
	require.ElementsMatch(t, []string{"TENANT:MEMBER", "PLATFORM:PLATFORM_ADMIN"}, names)
}

func TestScopedUsers_RoleFromOtherTenantNotUsable(t *testing.T) {
	t.Parallel()
	f := setup(t)
	_, err := f.enf.Scope(f.ctxGlob).Roles().Create(f.ctxGlob, "AUDITOR")
	require.NoError(t, err)

	_, err = f.enf.Scope(f.ctxAcme).Users().Create(f.ctxAcme, "ana@acme.io", "Ana", "h", "AUDITOR")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScope_RebuiltPerCall(t *testing.T) {
	t.Parallel()
	f := setup(t)
	ctx, h := tenantctx.NewContext(context.Background())
	_, ok := f.enf.Scope(ctx).TenantID()
	require.False(t, ok)

	h.Set(f.acme.ID)
	id, ok := f.enf.Scope(ctx).TenantID()
	require.True(t, ok)
	require.Equal(t, f.acme.ID, id)

	h.Clear()
	_, ok = f.enf.Scope(ctx).TenantID()
	require.False(t, ok)
}
