package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const (
	// RefreshTokenBytes es la entropía del secreto de refresh.
	RefreshTokenBytes = 64
	// ResetTokenBytes es la entropía del secreto de reset.
	ResetTokenBytes = 32
)

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding. Es lo
// único que se persiste de un secreto opaco.
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
