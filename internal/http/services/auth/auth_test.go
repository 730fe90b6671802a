package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamnest/teamnest/internal/domain/repository"
	jwtx "github.com/teamnest/teamnest/internal/jwt"
	"github.com/teamnest/teamnest/internal/security/password"
	tokens "github.com/teamnest/teamnest/internal/security/token"
	"github.com/teamnest/teamnest/internal/store/memory"
	"github.com/teamnest/teamnest/internal/tenancy"
	"github.com/teamnest/teamnest/internal/tenantctx"
)

var (
	keysOnce sync.Once
	keys     *jwtx.KeyPair
	keysErr  error
)

func testKeys(t *testing.T) *jwtx.KeyPair {
	t.Helper()
	keysOnce.Do(func() {
		pub, priv, err := jwtx.GenerateKeyPairPEM(2048)
		if err != nil {
			keysErr = err
			return
		}
		keys, keysErr = jwtx.LoadKeyPair(pub, priv)
	})
	require.NoError(t, keysErr)
	return keys
}

type capturedMail struct {
	mu      sync.Mutex
	resets  []string
	welcome []string
	fail    error
}

func (c *capturedMail) SendPasswordReset(_ context.Context, _ *repository.User, raw string, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets = append(c.resets, raw)
	return c.fail
}

func (c *capturedMail) SendWelcome(_ context.Context, u *repository.User, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.welcome = append(c.welcome, u.Email)
	return c.fail
}

type fixture struct {
	st       *memory.Store
	hasher   *password.Hasher
	issuer   *jwtx.Issuer
	mail     *capturedMail
	svc      Services
	refresh  *tokens.RefreshService
	register RegisterService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	h, err := password.NewHasher(password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32})
	require.NoError(t, err)
	iss := jwtx.NewIssuer("https://api.teamnest.test", testKeys(t), 15*time.Minute)
	mail := &capturedMail{}
	rs := tokens.NewRefreshService(tokens.RefreshDeps{Store: st})
	resets := tokens.NewResetService(tokens.ResetDeps{Store: st, Notifier: mail, Sessions: rs})
	reg := NewRegisterService(RegisterDeps{Store: st, Hasher: h, Policy: password.DefaultPolicy, Welcome: mail})
	return &fixture{
		st:     st,
		hasher: h,
		issuer: iss,
		mail:   mail,
		svc: Services{
			Login:    NewLoginService(LoginDeps{Store: st, Hasher: h, Issuer: iss, Refresh: rs}),
			Refresh:  NewRefreshService(RefreshDeps{Issuer: iss, Tokens: rs}),
			Logout:   NewLogoutService(rs),
			Password: NewPasswordService(PasswordDeps{Resets: resets, Hasher: h, Policy: password.DefaultPolicy}),
			Me:       NewMeService(st, tenancy.NewEnforcer(st)),
			Register: reg,
		},
		refresh:  rs,
		register: reg,
	}
}

func (f *fixture) registerAcme(t *testing.T) *RegisterTenantResult {
	t.Helper()
	res, err := f.svc.Register.RegisterTenant(context.Background(), RegisterTenantInput{
		TenantName: "Acme",
		OwnerName:  "Ada",
		Email:      "Ada@Acme.io",
		Password:   "correct-horse-battery",
	})
	require.NoError(t, err)
	return res
}

func TestRegisterTenant(t *testing.T) {
	f := newFixture(t)
	res := f.registerAcme(t)

	assert.Equal(t, "Acme", res.Tenant.Name)
	assert.Equal(t, repository.StatusActive, res.Tenant.Status)
	require.NotNil(t, res.Owner.TenantID)
	assert.Equal(t, res.Tenant.ID, *res.Owner.TenantID)
	assert.Equal(t, "ada@acme.io", res.Owner.Email)
	assert.Equal(t, []string{"OWNER"}, res.Owner.RoleNames())
	assert.Equal(t, []string{"ada@acme.io"}, f.mail.welcome)

	roles, err := f.st.Roles().List(context.Background(), repository.ForTenant(res.Tenant.ID))
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}

func TestRegisterTenant_Conflicts(t *testing.T) {
	f := newFixture(t)
	f.registerAcme(t)
	ctx := context.Background()

	_, err := f.svc.Register.RegisterTenant(ctx, RegisterTenantInput{TenantName: "acme", OwnerName: "B", Email: "b@acme.io", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, ErrTenantNameAlreadyExists)

	_, err = f.svc.Register.RegisterTenant(ctx, RegisterTenantInput{TenantName: "Globex", OwnerName: "B", Email: "ada@acme.io", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	// el rollback no deja el tenant Globex a medias
	exists, err := f.st.Tenants().ExistsByName(ctx, "Globex")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.svc.Register.RegisterTenant(ctx, RegisterTenantInput{TenantName: "Globex", OwnerName: "B", Email: "b@globex.io", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = f.svc.Register.RegisterTenant(ctx, RegisterTenantInput{TenantName: "", OwnerName: "B", Email: "b@globex.io", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestRegisterTenant_WelcomeFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.mail.fail = errors.New("smtp down")
	res := f.registerAcme(t)
	assert.NotNil(t, res.Owner)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	res := f.registerAcme(t)
	ctx := context.Background()

	pair, err := f.svc.Login.Login(ctx, " ADA@acme.io ", "correct-horse-battery")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(30*24*3600), pair.RefreshExpiresIn)

	claims, err := f.issuer.Verifier().Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ada@acme.io", claims.Subject)
	assert.Equal(t, res.Owner.ID.String(), claims.UserID)
	assert.Equal(t, res.Tenant.ID.String(), claims.TenantID)
	assert.Equal(t, []string{"OWNER"}, claims.Roles)
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	res := f.registerAcme(t)
	ctx := context.Background()

	_, err := f.svc.Login.Login(ctx, "ada@acme.io", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login.Login(ctx, "nobody@acme.io", "whatever-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login.Login(ctx, "", "x")
	assert.ErrorIs(t, err, ErrMissingFields)

	require.NoError(t, f.st.SetTenantStatus(res.Tenant.ID, repository.StatusInactive))
	_, err = f.svc.Login.Login(ctx, "ada@acme.io", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrTenantSuspended)

	require.NoError(t, f.st.SetTenantStatus(res.Tenant.ID, repository.StatusActive))
	require.NoError(t, f.st.SetUserStatus(res.Owner.ID, repository.StatusInactive))
	_, err = f.svc.Login.Login(ctx, "ada@acme.io", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RefreshDisabled(t *testing.T) {
	f := newFixture(t)
	f.registerAcme(t)
	login := NewLoginService(LoginDeps{Store: f.st, Hasher: f.hasher, Issuer: f.issuer})

	pair, err := login.Login(context.Background(), "ada@acme.io", "correct-horse-battery")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Empty(t, pair.RefreshToken)

	_, err = NewRefreshService(RefreshDeps{Issuer: f.issuer}).Refresh(context.Background(), "anything")
	assert.ErrorIs(t, err, tokens.ErrInvalidOrExpiredRefreshToken)
}

func TestRefreshAndLogout(t *testing.T) {
	f := newFixture(t)
	f.registerAcme(t)
	ctx := context.Background()

	pair, err := f.svc.Login.Login(ctx, "ada@acme.io", "correct-horse-battery")
	require.NoError(t, err)

	next, err := f.svc.Refresh.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	assert.NotEmpty(t, next.AccessToken)

	_, err = f.svc.Refresh.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, tokens.ErrInvalidOrExpiredRefreshToken)

	require.NoError(t, f.svc.Logout.Logout(ctx, next.RefreshToken))
	require.NoError(t, f.svc.Logout.Logout(ctx, next.RefreshToken))
	require.NoError(t, f.svc.Logout.Logout(ctx, ""))
	_, err = f.svc.Refresh.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, tokens.ErrInvalidOrExpiredRefreshToken)
}

func TestForgotAndReset(t *testing.T) {
	f := newFixture(t)
	f.registerAcme(t)
	ctx := context.Background()

	pair, err := f.svc.Login.Login(ctx, "ada@acme.io", "correct-horse-battery")
	require.NoError(t, err)

	require.NoError(t, f.svc.Password.Forgot(ctx, "nobody@acme.io"))
	require.NoError(t, f.svc.Password.Forgot(ctx, ""))
	assert.Empty(t, f.mail.resets)

	require.NoError(t, f.svc.Password.Forgot(ctx, "ada@acme.io"))
	require.Len(t, f.mail.resets, 1)
	raw := f.mail.resets[0]

	err = f.svc.Password.Reset(ctx, raw, "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	require.NoError(t, f.svc.Password.Reset(ctx, raw, "a-brand-new-secret"))
	err = f.svc.Password.Reset(ctx, raw, "another-new-secret")
	assert.ErrorIs(t, err, tokens.ErrInvalidOrExpiredResetToken)

	_, err = f.svc.Login.Login(ctx, "ada@acme.io", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login.Login(ctx, "ada@acme.io", "a-brand-new-secret")
	assert.NoError(t, err)

	// el reset revoca las sesiones previas
	_, err = f.svc.Refresh.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, tokens.ErrInvalidOrExpiredRefreshToken)

	assert.ErrorIs(t, f.svc.Password.Reset(ctx, "", "a-brand-new-secret"), ErrMissingFields)
}

func TestMe_ReadsThroughTenantScope(t *testing.T) {
	f := newFixture(t)
	acme := f.registerAcme(t)
	globex, err := f.svc.Register.RegisterTenant(context.Background(), RegisterTenantInput{
		TenantName: "Globex", OwnerName: "Hank", Email: "hank@globex.io", Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	ctx := tenantctx.WithTenant(context.Background(), acme.Tenant.ID)
	me, err := f.svc.Me.Me(ctx, acme.Owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@acme.io", me.User.Email)
	require.NotNil(t, me.Tenant)
	assert.Equal(t, "Acme", me.Tenant.Name)

	_, err = f.svc.Me.Me(ctx, globex.Owner.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
