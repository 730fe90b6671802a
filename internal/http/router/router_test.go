package router_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamnest/teamnest/internal/bootstrap"
	"github.com/teamnest/teamnest/internal/cache"
	"github.com/teamnest/teamnest/internal/domain/repository"
	authctrl "github.com/teamnest/teamnest/internal/http/controllers/auth"
	healthctrl "github.com/teamnest/teamnest/internal/http/controllers/health"
	membersctrl "github.com/teamnest/teamnest/internal/http/controllers/members"
	"github.com/teamnest/teamnest/internal/http/helpers"
	mw "github.com/teamnest/teamnest/internal/http/middlewares"
	"github.com/teamnest/teamnest/internal/http/router"
	authsvc "github.com/teamnest/teamnest/internal/http/services/auth"
	memberssvc "github.com/teamnest/teamnest/internal/http/services/members"
	jwtx "github.com/teamnest/teamnest/internal/jwt"
	"github.com/teamnest/teamnest/internal/rate"
	"github.com/teamnest/teamnest/internal/security/password"
	tokens "github.com/teamnest/teamnest/internal/security/token"
	"github.com/teamnest/teamnest/internal/store/memory"
	"github.com/teamnest/teamnest/internal/tenancy"
	"github.com/teamnest/teamnest/internal/tenantctx"
)

const issuer = "https://api.teamnest.test"

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

type resetInbox struct {
	mu   sync.Mutex
	last string
}

func (r *resetInbox) SendPasswordReset(_ context.Context, _ *repository.User, raw string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = raw
	return nil
}

type env struct {
	t       *testing.T
	srv     *httptest.Server
	st      *memory.Store
	status  *cache.TenantStatus
	hasher  *password.Hasher
	inbox   *resetInbox
	cookies helpers.CookieConfig
}

func newEnv(t *testing.T, policy tenantctx.Policy, opts ...func(*router.Deps)) *env {
	t.Helper()
	st := memory.New()
	h, err := password.NewHasher(password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32})
	require.NoError(t, err)
	iss := jwtx.NewIssuer(issuer, testKeys(t), 15*time.Minute)
	inbox := &resetInbox{}
	refresh := tokens.NewRefreshService(tokens.RefreshDeps{Store: st})
	resets := tokens.NewResetService(tokens.ResetDeps{Store: st, Notifier: inbox, Sessions: refresh})
	enf := tenancy.NewEnforcer(st)
	cookies := helpers.CookieConfig{AccessName: "access_token", RefreshName: "refresh_token", HTTPOnly: true, Path: "/", SameSite: http.SameSiteLaxMode}
	status := cache.NewTenantStatus(cache.NewMemory("test:", time.Minute), st.Tenants(), time.Minute)

	services := authsvc.Services{
		Login:    authsvc.NewLoginService(authsvc.LoginDeps{Store: st, Hasher: h, Issuer: iss, Refresh: refresh}),
		Refresh:  authsvc.NewRefreshService(authsvc.RefreshDeps{Issuer: iss, Tokens: refresh}),
		Logout:   authsvc.NewLogoutService(refresh),
		Password: authsvc.NewPasswordService(authsvc.PasswordDeps{Resets: resets, Hasher: h, Policy: password.DefaultPolicy}),
		Me:       authsvc.NewMeService(st, enf),
		Register: authsvc.NewRegisterService(authsvc.RegisterDeps{Store: st, Hasher: h, Policy: password.DefaultPolicy}),
	}
	deps := router.Deps{
		Auth:          authctrl.NewControllers(services, cookies),
		Members:       membersctrl.NewController(memberssvc.NewService(memberssvc.Deps{Enforcer: enf, Hasher: h, Policy: password.DefaultPolicy}), enf),
		Health:        healthctrl.NewController(testKeys(t), "test", map[string]healthctrl.Pinger{"store": st}),
		Verifier:      iss.Verifier(),
		AccessCookie:  cookies.AccessName,
		Tenant:        mw.TenantConfig{Policy: policy, Status: status},
		LoginLimiter:  rate.NewMemoryLimiter(5, time.Minute),
		ForgotLimiter: rate.NewMemoryLimiter(3, time.Minute),
		ManagerRoles:  []string{"OWNER", "PLATFORM_ADMIN"},
	}
	for _, o := range opts {
		o(&deps)
	}
	srv := httptest.NewServer(router.New(deps))
	t.Cleanup(srv.Close)
	return &env{t: t, srv: srv, st: st, status: status, hasher: h, inbox: inbox, cookies: cookies}
}

type response struct {
	status  int
	body    map[string]any
	header  http.Header
	cookies []*http.Cookie
}

func (e *env) do(method, path, bearer string, body any, cookies ...*http.Cookie) response {
	e.t.Helper()
	hdr := http.Header{}
	if bearer != "" {
		hdr.Set("Authorization", "Bearer "+bearer)
	}
	return e.doHeader(method, path, hdr, body, cookies...)
}

func (e *env) doHeader(method, path string, hdr http.Header, body any, cookies ...*http.Cookie) response {
	e.t.Helper()
	var rdr *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rdr = strings.NewReader(string(b))
	} else {
		rdr = strings.NewReader("")
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer res.Body.Close()

	out := response{status: res.StatusCode, header: res.Header, cookies: res.Cookies(), body: map[string]any{}}
	_ = json.NewDecoder(res.Body).Decode(&out.body)
	return out
}

func (e *env) register(name, email string) response {
	return e.do(http.MethodPost, "/api/tenants/register", "", map[string]string{
		"tenant_name": name, "owner_name": "Owner", "email": email, "password": "correct-horse-battery",
	})
}

func (e *env) login(email, pass string) response {
	return e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": pass})
}

func (e *env) accessFor(email, pass string) string {
	e.t.Helper()
	res := e.login(email, pass)
	require.Equal(e.t, http.StatusOK, res.status, res.body)
	return res.body["access_token"].(string)
}

func cookieNamed(cs []*http.Cookie, name string) *http.Cookie {
	for _, c := range cs {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterLoginMe(t *testing.T) {
	e := newEnv(t, tenantctx.PolicyIgnore)

	res := e.register("Acme", "ada@acme.io")
	require.Equal(t, http.StatusCreated, res.status, res.body)
	assert.Equal(t, "no-store", res.header.Get("Cache-Control"))
	assert.Equal(t, "nosniff", res.header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, res.header.Get("X-Request-ID"))

	res = e.register("ACME", "other@acme.io")
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, "TENANT_NAME_TAKEN", res.body["code"])

	res = e.register("Globex", "ada@acme.io")
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Equal(t, "EMAIL_ALREADY_IN_USE", res.body["code"])

	res = e.login("ada@acme.io", "correct-horse-battery")
	require.Equal(t, http.StatusOK, res.status, res.body)
	assert.Equal(t, "Bearer", res.body["token_type"])
	assert.EqualValues(t, 900, res.body["expires_in"])
	assert.NotEmpty(t, res.body["refresh_token"])
	require.NotNil(t, cookieNamed(res.cookies, "access_token"))
	require.NotNil(t, cookieNamed(res.cookies, "refresh_token"))
	access := res.body["access_token"].(string)

	me := e.do(http.MethodGet, "/api/auth/me", access, nil)
	require.Equal(t, http.StatusOK, me.status, me.body)
	user := me.body["user"].(map[string]any)
	assert.Equal(t, "ada@acme.io", user["email"])
	assert.Equal(t, []any{"OWNER"}, user["roles"])
	assert.Nil(t, user["password_hash"])
	assert.Equal(t, "Acme", me.body["tenant"].(map[string]any)["name"])

	// la cookie sirve si no hay header
	me = e.do(http.MethodGet, "/api/auth/me", "", nil, cookieNamed(res.cookies, "access_token"))
	assert.Equal(t, http.StatusOK, me.status)

	me = e.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, me.status)
	assert.Equal(t, "TOKEN_MISSING", me.body["code"])

	me = e.do(http.MethodGet, "/api/auth/me", access+"x", nil)
	assert.Equal(t, http.StatusUnauthorized, me.status)
	assert.Equal(t, "TOKEN_INVALID", me.body["code"])

	res = e.login("ada@acme.io", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, "INVALID_CREDENTIALS", res.body["code"])
}

func TestRefreshAndLogout(t *testing.T) {
	e := newEnv(t, tenantctx.PolicyIgnore)
	require.Equal(t, http.StatusCreated, e.register("Acme", "ada@acme.io").status)
	login := e.login("ada@acme.io", "correct-horse-battery")
	require.Equal(t, http.StatusOK, login.status)
	oldRefresh := cookieNamed(login.cookies, "refresh_token")
	require.NotNil(t, oldRefresh)

	res := e.do(http.MethodPost, "/api/auth/refresh", "", nil, oldRefresh)
	require.Equal(t, http.StatusOK, res.status, res.body)
	newRaw := res.body["refresh_token"].(string)
	assert.NotEqual(t, oldRefresh.Value, newRaw)

	res = e.do(http.MethodPost, "/api/auth/refresh", "", nil, oldRefresh)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = e.do(http.MethodPost, "/api/auth/refresh", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = e.do(http.MethodPost, "/api/auth/logout", "", map[string]string{"refresh_token": newRaw})
	assert.Equal(t, http.StatusOK, res.status)
	var cleared int
	for _, line := range res.header.Values("Set-Cookie") {
		if strings.Contains(line, "Max-Age=0") {
			cleared++
		}
	}
	assert.Equal(t, 2, cleared)

	res = e.do(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": newRaw})
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = e.do(http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, res.status)
}

func TestForgotAndResetPassword(t *testing.T) {
	e := newEnv(t, tenantctx.PolicyIgnore)
	require.Equal(t, http.StatusCreated, e.register("Acme", "ada@acme.io").status)

	known := e.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ada@acme.io"})
	unknown := e.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@acme.io"})
	assert.Equal(t, http.StatusOK, known.status)
	assert.Equal(t, known.status, unknown.status)
	assert.Equal(t, known.body, unknown.body)
	require.NotEmpty(t, e.inbox.last)

	res := e.do(http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": "bogus", "new_password": "a-brand-new-secret"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "INVALID_RESET_TOKEN", res.body["code"])

	res = e.do(http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": e.inbox.last, "new_password": "short"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "PASSWORD_TOO_WEAK", res.body["code"])

	res = e.do(http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": e.inbox.last, "new_password": "a-brand-new-secret"})
	require.Equal(t, http.StatusOK, res.status, res.body)

	res = e.do(http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": e.inbox.last, "new_password": "a-brand-new-secret"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, http.StatusOK, e.login("ada@acme.io", "a-brand-new-secret").status)

	// el límite de forgot corta con 429 sin importar el email
	e.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "x@acme.io"})
	res = e.do(http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "y@acme.io"})
	assert.Equal(t, http.StatusTooManyRequests, res.status)
	assert.NotEmpty(t, res.header.Get("Retry-After"))
}

func TestLoginRateLimited(t *testing.T) {
	e := newEnv(t, tenantctx.PolicyIgnore)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusUnauthorized, e.login("ghost@acme.io", "whatever-pass").status)
	}
	res := e.login("ghost@acme.io", "whatever-pass")
	assert.Equal(t, http.StatusTooManyRequests, res.status)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", res.body["code"])
}

func loginVia(e *env, xff string) int {
	e.t.Helper()
	hdr := http.Header{}
	hdr.Set("X-Forwarded-For", xff)
	body := map[string]string{"email": "ghost@acme.io", "password": "whatever-pass"}
	return e.doHeader(http.MethodPost, "/api/auth/login", hdr, body).status
}

func TestLoginRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	e := newEnv(t, tenantctx.PolicyIgnore)
	limited := 0
	for i := 0; i < 50; i++ {
		if loginVia(e, fmt.Sprintf("10.0.0.%d", i)) == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 45, limited)
}

func TestLoginRateLimitBehindTrustedProxy(t *testing.T) {
	proxies, err := helpers.ParseTrustedProxies([]string{"127.0.0.0/8", "::1"})
	require.NoError(t, err)
	e := newEnv(t, tenantctx.PolicyIgnore, func(d *router.Deps) { d.TrustedProxies = proxies })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusUnauthorized, loginVia(e, "198.51.100.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, loginVia(e, "198.51.100.1"))
	// otro cliente real detrás del mismo proxy tiene su propio cupo
	assert.Equal(t, http.StatusUnauthorized, loginVia(e, "198.51.100.2"))
	// un prefijo falso a la izquierda no cambia el cliente resuelto
	assert.Equal(t, http.StatusTooManyRequests, loginVia(e, "6.6.6.6, 198.51.100.1"))
}

func TestMembersAreTenantIsolated(t *testing.T) {
	e := newEnv(t, tenantctx.PolicyIgnore)
	require.Equal(t, http.StatusCreated, e.register("Acme", "ada@acme.io").status)
	require.Equal(t, http.StatusCreated, e.register("Globex", "hank@globex.io").status)
	acme := e.accessFor("ada@acme.io", "correct-horse-battery")
	globex := e.accessFor("hank@globex.io", "correct-horse-battery")

	res := e.do(http.MethodPost, "/api/users", acme, map[string]string{"email": "bob@acme.io", "name": "Bob", "password": "long-enough-pass"})
	require.Equal(t, http.StatusCreated, res.status, res.body)
	assert.Equal(t, []any{"MEMBER"}, res.body["roles"])
	bobID := res.body["id"].(string)

	res = e.do(http.MethodGet, "/api/users", acme, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.body["users"], 2)

	res = e.do(http.MethodGet, "/api/users", globex, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.body["users"], 1)

	res = e.do(http.MethodGet, "/api/users/"+bobID, globex, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	res = e.do(http.MethodGet, "/api/users/"+bobID, acme, nil)
	assert.Equal(t, http.StatusOK, res.status)

	bob := e.accessFor("bob@acme.io", "long-enough-pass")
	res = e.do(http.MethodPost, "/api/roles", bob, map[string]string{"name": "auditor"})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = e.do(http.MethodPost, "/api/roles", acme, map[string]string{"name": "auditor"})
	require.Equal(t, http.StatusCreated, res.status, res.body)
	assert.Equal(t, "AUDITOR", res.body["name"])

	res = e.do(http.MethodGet, "/api/roles", globex, nil)
	require.Equal(t, http.StatusOK, res.status)
	for _, r := range res.body["roles"].([]any) {
		assert.NotEqual(t, "AUDITOR", r.(map[string]any)["name"])
	}
}

func TestPlatformAdminWritesNeedTenant(t *testing.T) {
	e := newEnv(t, tenantctx.PolicyIgnore)
	require.Equal(t, http.StatusCreated, e.register("Acme", "ada@acme.io").status)
	_, err := bootstrap.CreatePlatformAdmin(context.Background(), bootstrap.AdminConfig{
		Store: e.st, Hasher: e.hasher, Policy: password.DefaultPolicy,
		Role: "PLATFORM_ADMIN", Email: "root@teamnest.io", Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	root := e.accessFor("root@teamnest.io", "correct-horse-battery")

	res := e.do(http.MethodGet, "/api/users", root, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.body["users"], 2)

	res = e.do(http.MethodPost, "/api/users", root, map[string]string{"email": "x@acme.io", "name": "X", "password": "long-enough-pass"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "TENANT_NOT_RESOLVED", res.body["code"])

	me := e.do(http.MethodGet, "/api/auth/me", root, nil)
	require.Equal(t, http.StatusOK, me.status)
	assert.Nil(t, me.body["tenant"])
}

func TestSuspendedTenantIsForbidden(t *testing.T) {
	e := newEnv(t, tenantctx.PolicyIgnore)
	reg := e.register("Acme", "ada@acme.io")
	require.Equal(t, http.StatusCreated, reg.status)
	tid := uuid.MustParse(reg.body["tenant"].(map[string]any)["id"].(string))
	access := e.accessFor("ada@acme.io", "correct-horse-battery")

	require.NoError(t, e.st.SetTenantStatus(tid, repository.StatusInactive))
	require.NoError(t, e.status.Invalidate(context.Background(), tid))

	res := e.do(http.MethodGet, "/api/auth/me", access, nil)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "TENANT_SUSPENDED", res.body["code"])
}

func TestSuspendedTenantCannotRefresh(t *testing.T) {
	e := newEnv(t, tenantctx.PolicyIgnore)
	reg := e.register("Acme", "ada@acme.io")
	require.Equal(t, http.StatusCreated, reg.status)
	tid := uuid.MustParse(reg.body["tenant"].(map[string]any)["id"].(string))
	login := e.login("ada@acme.io", "correct-horse-battery")
	require.Equal(t, http.StatusOK, login.status)
	refresh := cookieNamed(login.cookies, "refresh_token")
	require.NotNil(t, refresh)

	require.NoError(t, e.st.SetTenantStatus(tid, repository.StatusInactive))
	require.NoError(t, e.status.Invalidate(context.Background(), tid))

	assert.Equal(t, http.StatusForbidden, e.login("ada@acme.io", "correct-horse-battery").status)
	res := e.do(http.MethodPost, "/api/auth/refresh", "", nil, refresh)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Nil(t, res.body["refresh_token"])
}

func signRaw(t *testing.T, tenantClaim string) string {
	t.Helper()
	now := time.Now()
	tok, err := testKeys(t).Sign(&jwtx.AccessClaims{
		Roles:    []string{"OWNER"},
		UserID:   uuid.NewString(),
		TenantID: tenantClaim,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "ghost@acme.io",
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(time.Minute)),
			ID:        uuid.NewString(),
		},
	})
	require.NoError(t, err)
	return tok
}

func TestMalformedTenantClaimPolicy(t *testing.T) {
	tok := signRaw(t, "not-a-uuid")

	strict := newEnv(t, tenantctx.PolicyReject)
	res := strict.do(http.MethodGet, "/api/users", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	lenient := newEnv(t, tenantctx.PolicyIgnore)
	res = lenient.do(http.MethodPost, "/api/roles", tok, map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "TENANT_NOT_RESOLVED", res.body["code"])
}

func TestHealthAndJWKS(t *testing.T) {
	e := newEnv(t, tenantctx.PolicyIgnore)

	res := e.do(http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "ok", res.body["status"])
	assert.Equal(t, testKeys(t).KID(), res.body["kid"])

	res = e.do(http.MethodGet, "/.well-known/jwks.json", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	ks := res.body["keys"].([]any)
	require.Len(t, ks, 1)
	k := ks[0].(map[string]any)
	assert.Equal(t, testKeys(t).KID(), k["kid"])
	assert.Equal(t, "RS256", k["alg"])

	res = e.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "ROUTE_NOT_FOUND", res.body["code"])
}
