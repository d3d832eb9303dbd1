package jwk

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
)

// KeyBuilder assembles a Key from raw material. "kid" is optional and is
// not checked. It panics on misuse (an unset algorithm, a nil key, an empty
// secret, an unsupported EC curve) because these are
// programming errors caught during development, not runtime conditions a
// caller should branch on.
type KeyBuilder struct {
	alg string
	use string
	kid string
}

// NewKeyBuilder starts a KeyBuilder for the given "alg" value.
func NewKeyBuilder(alg string) *KeyBuilder {
	if alg == "" {
		panic("jwk: KeyBuilder requires a non-empty algorithm")
	}
	return &KeyBuilder{alg: alg}
}

// WithUse sets the "use" parameter ("sig" or "enc").
func (b *KeyBuilder) WithUse(use string) *KeyBuilder {
	b.use = use
	return b
}

// WithKeyID sets the "kid" parameter used to look the key up in a Set.
func (b *KeyBuilder) WithKeyID(kid string) *KeyBuilder {
	b.kid = kid
	return b
}

// Symmetric builds an oct Key from a secret.
func (b *KeyBuilder) Symmetric(secret []byte) Key {
	if len(secret) == 0 {
		panic("jwk: Symmetric requires a non-empty secret")
	}
	return NewSymmetric(secret, b.alg, b.use, b.kid)
}

// RSAPublic builds an RSA Key from a public key only.
func (b *KeyBuilder) RSAPublic(pub *rsa.PublicKey) Key {
	if pub == nil {
		panic("jwk: RSAPublic requires a non-nil public key")
	}
	return NewRSAPublic(pub, b.alg, b.use, b.kid)
}

// RSAPrivate builds an RSA Key backed by a full private key.
func (b *KeyBuilder) RSAPrivate(priv *rsa.PrivateKey) Key {
	if priv == nil {
		panic("jwk: RSAPrivate requires a non-nil private key")
	}
	return NewRSAPrivate(priv, b.alg, b.use, b.kid)
}

// ECPublic builds an EC Key from a public key only.
func (b *KeyBuilder) ECPublic(pub *ecdsa.PublicKey) Key {
	if pub == nil {
		panic("jwk: ECPublic requires a non-nil public key")
	}
	if name := curveName(pub.Curve); name == "" {
		panic(fmt.Sprintf("jwk: unsupported EC curve %v", pub.Curve.Params().Name))
	}
	return NewECPublic(pub, b.alg, b.use, b.kid)
}

// ECPrivate builds an EC Key backed by a full private key.
func (b *KeyBuilder) ECPrivate(priv *ecdsa.PrivateKey) Key {
	if priv == nil {
		panic("jwk: ECPrivate requires a non-nil private key")
	}
	if name := curveName(priv.Curve); name == "" {
		panic(fmt.Sprintf("jwk: unsupported EC curve %v", priv.Curve.Params().Name))
	}
	return NewECPrivate(priv, b.alg, b.use, b.kid)
}
