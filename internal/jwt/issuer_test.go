package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testIss = "https://api.teamnest.test"

func fixedNow() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss := NewIssuer(testIss, testKeyPair(t), 15*time.Minute)
	iss.Now = fixedNow
	return iss
}

func payload(t *testing.T, token string) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestIssueAccess_TenantUser(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)
	tenant := uuid.New()
	user := uuid.New()

	at, err := iss.IssueAccess(AccessSubject{UserID: user, Email: "ana@acme.io", TenantID: &tenant, Roles: []string{"ROLE_MEMBER"}})
	require.NoError(t, err)
	require.EqualValues(t, 900, at.ExpiresIn)
	require.Equal(t, fixedNow().Add(15*time.Minute), at.ExpiresAt)

	claims, err := iss.Verifier().Verify(at.Token)
	require.NoError(t, err)
	require.Equal(t, "ana@acme.io", claims.Subject)
	require.Equal(t, testIss, claims.Issuer)
	require.Equal(t, user.String(), claims.UserID)
	require.Equal(t, tenant.String(), claims.TenantID)
	require.Equal(t, []string{"MEMBER"}, claims.Roles)
	require.Equal(t, at.JTI, claims.ID)
	_, err = uuid.Parse(claims.ID)
	require.NoError(t, err)

	parts := strings.Split(at.Token, ".")
	hdr, _ := base64.RawURLEncoding.DecodeString(parts[0])
	require.Contains(t, string(hdr), `"kid":"`+iss.Keys.KID()+`"`)
	require.Contains(t, string(hdr), `"alg":"RS256"`)
}

func TestIssueAccess_PlatformUserHasNoTenantClaim(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)
	at, err := iss.IssueAccess(AccessSubject{UserID: uuid.New(), Email: "root@teamnest.io", Roles: []string{"PLATFORM_ADMIN"}})
	require.NoError(t, err)

	m := payload(t, at.Token)
	_, has := m["tenant_id"]
	require.False(t, has)
	require.Equal(t, []any{"PLATFORM_ADMIN"}, m["roles"])
}

func TestIssueAccess_NoRolesEncodesEmptyArray(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)
	at, err := iss.IssueAccess(AccessSubject{UserID: uuid.New(), Email: "x@acme.io"})
	require.NoError(t, err)
	require.Equal(t, []any{}, payload(t, at.Token)["roles"])
}

func TestIssueAccess_UniqueJTI(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)
	s := AccessSubject{UserID: uuid.New(), Email: "x@acme.io"}
	a, err := iss.IssueAccess(s)
	require.NoError(t, err)
	b, err := iss.IssueAccess(s)
	require.NoError(t, err)
	require.NotEqual(t, a.JTI, b.JTI)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)
	at, err := iss.IssueAccess(AccessSubject{UserID: uuid.New(), Email: "x@acme.io"})
	require.NoError(t, err)

	v := iss.Verifier()
	v.Now = func() time.Time { return fixedNow().Add(15*time.Minute + 10*time.Second) }
	_, err = v.Verify(at.Token)
	require.NoError(t, err, "inside leeway")

	v.Now = func() time.Time { return fixedNow().Add(16 * time.Minute) }
	_, err = v.Verify(at.Token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_WrongIssuer(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)
	at, err := iss.IssueAccess(AccessSubject{UserID: uuid.New(), Email: "x@acme.io"})
	require.NoError(t, err)

	v := NewVerifier("https://other", iss.Keys)
	v.Now = fixedNow
	_, err = v.Verify(at.Token)
	require.ErrorIs(t, err, ErrInvalidClaims)
}

func TestVerify_OtherKeyRejected(t *testing.T) {
	t.Parallel()
	pub, priv, err := GenerateKeyPairPEM(2048)
	require.NoError(t, err)
	other, err := LoadKeyPair(pub, priv)
	require.NoError(t, err)

	iss := newTestIssuer(t)
	at, err := iss.IssueAccess(AccessSubject{UserID: uuid.New(), Email: "x@acme.io"})
	require.NoError(t, err)

	v := NewVerifier(testIss, other)
	v.Now = fixedNow
	_, err = v.Verify(at.Token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()
	v := newTestIssuer(t).Verifier()
	for _, tok := range []string{"", "abc", "a.b", "a.b.c", "....", "eyJhbGciOiJSUzI1NiJ9.e30."} {
		_, err := v.Verify(tok)
		require.Error(t, err, tok)
	}
	_, err := v.Verify("a.b.c")
	require.ErrorIs(t, err, ErrMalformedToken)
}

func TestVerify_AlgNoneRejected(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)
	at, err := iss.IssueAccess(AccessSubject{UserID: uuid.New(), Email: "x@acme.io"})
	require.NoError(t, err)
	parts := strings.Split(at.Token, ".")
	none := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT","kid":"` + iss.Keys.KID() + `"}`))
	_, err = iss.Verifier().Verify(none + "." + parts[1] + ".")
	require.Error(t, err)
}

// Todo bit alterado del token serializado tiene que invalidarlo.
func TestVerify_EverySingleBitMutationFails(t *testing.T) {
	t.Parallel()
	iss := newTestIssuer(t)
	tenant := uuid.New()
	at, err := iss.IssueAccess(AccessSubject{UserID: uuid.New(), Email: "ana@acme.io", TenantID: &tenant, Roles: []string{"MEMBER"}})
	require.NoError(t, err)
	v := iss.Verifier()

	orig := []byte(at.Token)
	for i := range orig {
		for bit := 0; bit < 8; bit++ {
			mut := append([]byte(nil), orig...)
			mut[i] ^= 1 << bit
			if _, err := v.Verify(string(mut)); err == nil {
				t.Fatalf("mutation at byte %d bit %d verified", i, bit)
			}
		}
	}
}

func TestAccessClaimsHasRole(t *testing.T) {
	c := &AccessClaims{Roles: []string{"ROLE_owner", "MEMBER"}}
	require.True(t, c.HasRole("OWNER"))
	require.True(t, c.HasRole("role_member"))
	require.False(t, c.HasRole("PLATFORM_ADMIN"))
}
