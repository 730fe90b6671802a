package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Verifier valida access tokens emitidos por este deployment.
type Verifier struct {
	Iss    string
	Keys   *KeyPair
	Leeway time.Duration // tolerancia de reloj para exp/iat
	Now    func() time.Time
}

func NewVerifier(iss string, keys *KeyPair) *Verifier {
	return &Verifier{Iss: iss, Keys: keys, Leeway: 30 * time.Second, Now: time.Now}
}

// Verify chequea firma RS256, kid, iss y exp. La decodificación base64 es
// estricta: bits de relleno distintos de cero invalidan el token.
func (v *Verifier) Verify(token string) (*AccessClaims, error) {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	p := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodRS256.Alg()}),
		jwtv5.WithStrictDecoding(),
		jwtv5.WithIssuer(v.Iss),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithLeeway(v.Leeway),
		jwtv5.WithTimeFunc(now),
	)

	claims := &AccessClaims{}
	tok, err := p.ParseWithClaims(token, claims, v.keyfunc)
	if err != nil {
		return nil, classify(err)
	}
	if !tok.Valid {
		return nil, ErrInvalidSignature
	}
	if claims.UserID == "" || claims.Subject == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

func (v *Verifier) keyfunc(t *jwtv5.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid != v.Keys.kid {
		return nil, errors.New("unknown kid")
	}
	return v.Keys.pub, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid), errors.Is(err, jwtv5.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return ErrInvalidClaims
	}
}
