package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

// ErrKeyLoad envuelve cualquier falla al cargar el par RSA. Es fatal al boot.
var ErrKeyLoad = errors.New("rsa key load failed")

// MinKeyBits es el tamaño mínimo aceptado para la clave de firma.
const MinKeyBits = 2048

// KeyPair es el par RSA de firma del deployment. Inmutable tras cargarse,
// se comparte entre goroutines sin locks.
type KeyPair struct {
	priv *rsa.PrivateKey
	pub  *rsa.PublicKey
	kid  string
}

// LoadKeyPair parsea la clave pública (X.509 SubjectPublicKeyInfo) y la
// privada (PKCS#8, con fallback PKCS#1). Acepta PEM completo, PEM con "\n"
// literales (típico de env vars) o base64 pelado.
func LoadKeyPair(publicPEM, privatePEM string) (*KeyPair, error) {
	pubDER, err := decodeKeyMaterial(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrKeyLoad, err)
	}
	privDER, err := decodeKeyMaterial(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", ErrKeyLoad, err)
	}

	anyPub, err := x509.ParsePKIXPublicKey(pubDER)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrKeyLoad, err)
	}
	pub, ok := anyPub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is %T, want RSA", ErrKeyLoad, anyPub)
	}

	priv, err := parseRSAPrivate(privDER)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %v", ErrKeyLoad, err)
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, fmt.Errorf("%w: private key does not match public key", ErrKeyLoad)
	}
	if pub.N.BitLen() < MinKeyBits {
		return nil, fmt.Errorf("%w: key size %d < %d", ErrKeyLoad, pub.N.BitLen(), MinKeyBits)
	}

	kid, err := computeKID(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: kid: %v", ErrKeyLoad, err)
	}
	return &KeyPair{priv: priv, pub: pub, kid: kid}, nil
}

// KID retorna base64url sin padding de SHA-256 sobre el DER de la pública.
func (k *KeyPair) KID() string { return k.kid }

// Public retorna la clave pública.
func (k *KeyPair) Public() *rsa.PublicKey { return k.pub }

func computeKID(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

func parseRSAPrivate(der []byte) (*rsa.PrivateKey, error) {
	if k, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		rk, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is %T, want RSA", k)
		}
		return rk, nil
	}
	return x509.ParsePKCS1PrivateKey(der)
}

// decodeKeyMaterial normaliza y decodifica a DER.
func decodeKeyMaterial(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\r`, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty")
	}
	if block, _ := pem.Decode([]byte(s)); block != nil {
		return block.Bytes, nil
	}
	// sin armadura válida: sacar líneas -----BEGIN/END----- y espacios
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-----") {
			continue
		}
		b.WriteString(strings.Join(strings.Fields(line), ""))
	}
	der, err := base64.StdEncoding.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	return der, nil
}

// GenerateKeyPairPEM genera un par RSA nuevo y lo retorna como PEM
// (PUBLIC KEY / PRIVATE KEY PKCS#8). Lo usa `teamnest keys generate`.
func GenerateKeyPairPEM(bits int) (publicPEM, privatePEM string, err error) {
	if bits < MinKeyBits {
		return "", "", fmt.Errorf("key size %d < %d", bits, MinKeyBits)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return "", "", err
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return "", "", err
	}
	publicPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	privatePEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	return publicPEM, privatePEM, nil
}
