package jwt

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
)

// JWK es una clave pública RSA en formato RFC 7517.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	KID string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSet es el documento servido en /.well-known/jwks.json.
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// JWKS retorna el set con la única clave de firma.
func (k *KeyPair) JWKS() JWKSet {
	return JWKSet{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		KID: k.kid,
		N:   base64.RawURLEncoding.EncodeToString(k.pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(k.pub.E)).Bytes()),
	}}}
}

// JWKSJSON serializa el set; el resultado es estable para un mismo par.
func (k *KeyPair) JWKSJSON() []byte {
	b, _ := json.Marshal(k.JWKS())
	return b
}
