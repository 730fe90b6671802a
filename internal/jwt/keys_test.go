package jwt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testKeysOnce sync.Once
	testPubPEM   string
	testPrivPEM  string
)

func testPEMs(t *testing.T) (string, string) {
	t.Helper()
	testKeysOnce.Do(func() {
		var err error
		testPubPEM, testPrivPEM, err = GenerateKeyPairPEM(2048)
		if err != nil {
			panic(err)
		}
	})
	return testPubPEM, testPrivPEM
}

func testKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	pub, priv := testPEMs(t)
	kp, err := LoadKeyPair(pub, priv)
	require.NoError(t, err)
	return kp
}

func TestLoadKeyPair_KIDDeterministic(t *testing.T) {
	t.Parallel()
	a := testKeyPair(t)
	b := testKeyPair(t)
	require.Equal(t, a.KID(), b.KID())
	require.NotContains(t, a.KID(), "=")
	require.Len(t, a.KID(), 43) // 32 bytes base64url sin padding
}

func TestLoadKeyPair_EscapedNewlinesAndBareBase64(t *testing.T) {
	t.Parallel()
	pub, priv := testPEMs(t)
	ref := testKeyPair(t)

	escaped, err := LoadKeyPair(strings.ReplaceAll(pub, "\n", `\n`), strings.ReplaceAll(priv, "\n", `\n`))
	require.NoError(t, err)
	require.Equal(t, ref.KID(), escaped.KID())

	strip := func(s string) string {
		var out []string
		for _, l := range strings.Split(s, "\n") {
			if !strings.HasPrefix(l, "-----") {
				out = append(out, l)
			}
		}
		return strings.Join(out, "")
	}
	bare, err := LoadKeyPair(strip(pub), strip(priv))
	require.NoError(t, err)
	require.Equal(t, ref.KID(), bare.KID())
}

func TestLoadKeyPair_PKCS1Fallback(t *testing.T) {
	t.Parallel()
	pub, priv := testPEMs(t)
	block, _ := pem.Decode([]byte(priv))
	k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k.(*rsa.PrivateKey))})

	kp, err := LoadKeyPair(pub, string(pkcs1))
	require.NoError(t, err)
	require.Equal(t, testKeyPair(t).KID(), kp.KID())
}

func TestLoadKeyPair_Failures(t *testing.T) {
	t.Parallel()
	pub, priv := testPEMs(t)
	otherPub, _, err := GenerateKeyPairPEM(2048)
	require.NoError(t, err)

	cases := map[string][2]string{
		"empty public":   {"", priv},
		"empty private":  {pub, ""},
		"garbage":        {"not a key", priv},
		"swapped":        {priv, pub},
		"mismatched":     {otherPub, priv},
		"truncated priv": {pub, priv[:len(priv)/2]},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadKeyPair(c[0], c[1])
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrKeyLoad), "got %v", err)
		})
	}
}

func TestJWKS(t *testing.T) {
	t.Parallel()
	kp := testKeyPair(t)
	set := kp.JWKS()
	require.Len(t, set.Keys, 1)
	k := set.Keys[0]
	require.Equal(t, "RSA", k.Kty)
	require.Equal(t, "sig", k.Use)
	require.Equal(t, "RS256", k.Alg)
	require.Equal(t, kp.KID(), k.KID)
	require.Equal(t, "AQAB", k.E)
	require.NotEmpty(t, k.N)
	require.JSONEq(t, string(kp.JWKSJSON()), string(kp.JWKSJSON()))
	require.Contains(t, string(kp.JWKSJSON()), `"kid":"`+kp.KID()+`"`)
}

func TestGenerateKeyPairPEM_RejectsSmallKeys(t *testing.T) {
	t.Parallel()
	_, _, err := GenerateKeyPairPEM(1024)
	require.Error(t, err)
}
