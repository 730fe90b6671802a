package jwt

import (
	"errors"
	"time"

	"github.com/google/uuid"
	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

// Issuer emite access tokens RS256. No guarda estado entre llamadas.
type Issuer struct {
	Iss       string        // "iss"
	Keys      *KeyPair      // par de firma
	AccessTTL time.Duration // default 15m
	Now       func() time.Time
}

func NewIssuer(iss string, keys *KeyPair, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{Iss: iss, Keys: keys, AccessTTL: ttl, Now: time.Now}
}

// AccessSubject son los datos del usuario que viajan en el token.
type AccessSubject struct {
	UserID   uuid.UUID
	Email    string
	TenantID *uuid.UUID
	Roles    []string
}

// SubjectFromUser arma el subject desde la entidad.
func SubjectFromUser(u *repository.User) AccessSubject {
	return AccessSubject{UserID: u.ID, Email: u.Email, TenantID: u.TenantID, Roles: u.RoleNames()}
}

// AccessToken es el resultado de IssueAccess.
type AccessToken struct {
	Token     string
	JTI       string
	ExpiresIn int64 // segundos
	ExpiresAt time.Time
}

// IssueAccess firma un access token para s.
func (i *Issuer) IssueAccess(s AccessSubject) (AccessToken, error) {
	if s.Email == "" || s.UserID == uuid.Nil {
		return AccessToken{}, errors.New("access subject incomplete")
	}
	now := i.now().Truncate(time.Second)
	exp := now.Add(i.AccessTTL)

	roles := make([]string, 0, len(s.Roles))
	for _, r := range s.Roles {
		if r = normalizeRole(r); r != "" {
			roles = append(roles, r)
		}
	}
	claims := AccessClaims{
		Roles:  roles,
		UserID: s.UserID.String(),
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   s.Email,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	if s.TenantID != nil {
		claims.TenantID = s.TenantID.String()
	}

	signed, err := i.Keys.Sign(claims)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{
		Token:     signed,
		JTI:       claims.ID,
		ExpiresIn: int64(i.AccessTTL / time.Second),
		ExpiresAt: exp,
	}, nil
}

// Verifier retorna un verificador con el mismo issuer y par.
func (i *Issuer) Verifier() *Verifier {
	v := NewVerifier(i.Iss, i.Keys)
	v.Now = i.Now
	return v
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

// Sign firma claims arbitrarias con header kid/typ.
func (k *KeyPair) Sign(claims jwtv5.Claims) (string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = k.kid
	tk.Header["typ"] = "JWT"
	return tk.SignedString(k.priv)
}
