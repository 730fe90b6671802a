// Package password hashea y verifica passwords con argon2id (formato PHC)
// y valida la política de passwords.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

// ErrEmptyPassword se retorna al hashear un password vacío.
var ErrEmptyPassword = errors.New("empty password")

// Hash devuelve un PHC string: $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
func Hash(p Params, plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify compara en tiempo constante. Un PHC inválido retorna false.
func Verify(plain, phc string) bool {
	var v, m, t, p int
	var saltB64, dkB64 string
	n, _ := fmt.Sscanf(phc, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s", &v, &m, &t, &p, &saltB64)
	if n != 5 || v != argon2.Version {
		return false
	}
	// Sscanf no corta en '$': separar salt y dk a mano
	for i := 0; i < len(saltB64); i++ {
		if saltB64[i] == '$' {
			saltB64, dkB64 = saltB64[:i], saltB64[i+1:]
			break
		}
	}
	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil || len(salt) == 0 {
		return false
	}
	dkStored, err := base64.RawStdEncoding.DecodeString(dkB64)
	if err != nil || len(dkStored) == 0 {
		return false
	}
	key := argon2.IDKey([]byte(plain), salt, uint32(t), uint32(m), uint8(p), uint32(len(dkStored)))
	return subtle.ConstantTimeCompare(key, dkStored) == 1
}

// Hasher fija los parámetros y ofrece un hash "dummy" para igualar el
// tiempo de respuesta cuando el usuario no existe.
type Hasher struct {
	params Params
	dummy  string
}

func NewHasher(p Params) (*Hasher, error) {
	dummy, err := Hash(p, "teamnest-dummy-password")
	if err != nil {
		return nil, err
	}
	return &Hasher{params: p, dummy: dummy}, nil
}

func (h *Hasher) Hash(plain string) (string, error) { return Hash(h.params, plain) }

func (h *Hasher) Verify(plain, phc string) bool { return Verify(plain, phc) }

// Burn gasta un hash completo y descarta el resultado.
func (h *Hasher) Burn(plain string) { _ = Verify(plain, h.dummy) }
