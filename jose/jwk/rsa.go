package jwk

import (
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/deep-rent/jose/jose/jwa"
	"github.com/deep-rent/jose/jose/jwe"
)

type rsaPublicMaterial struct {
	N []byte
	E []byte
}

// rsaKey wraps an RSA key, which may hold either only a public key
// (verification, encryption to a recipient) or a full private key
// (signing, decryption).
type rsaKey struct {
	pub  *rsa.PublicKey
	priv *rsa.PrivateKey
	alg  string
	use  string
	kid  string
	x5t  string
}

// NewRSAPublic builds an RSA Key from a public key only, suitable for
// signature verification or JWE key wrapping toward this key's holder.
func NewRSAPublic(pub *rsa.PublicKey, alg, use, kid string) Key {
	k := &rsaKey{pub: pub, alg: alg, use: use, kid: kid}
	k.x5t = rsaThumbprint(pub)
	return k
}

// NewRSAPrivate builds an RSA Key backed by a full private key, suitable
// for signing or unwrapping keys encrypted to it.
func NewRSAPrivate(priv *rsa.PrivateKey, alg, use, kid string) Key {
	k := &rsaKey{pub: &priv.PublicKey, priv: priv, alg: alg, use: use, kid: kid}
	k.x5t = rsaThumbprint(&priv.PublicKey)
	return k
}

func rsaThumbprint(pub *rsa.PublicKey) string {
	return thumbprintRFC7638(map[string]string{
		"kty": "RSA",
		"n":   b64(pub.N.Bytes()),
		"e":   b64(big.NewInt(int64(pub.E)).Bytes()),
	})
}

func decodeRSAPublic(r *raw) (Key, error) {
	if r.N == "" || r.E == "" {
		return nil, fmt.Errorf("jwk: RSA key missing %q or %q", "n", "e")
	}
	nBytes, err := unb64(r.N)
	if err != nil {
		return nil, fmt.Errorf("jwk: RSA modulus: %w", err)
	}
	eBytes, err := unb64(r.E)
	if err != nil {
		return nil, fmt.Errorf("jwk: RSA exponent: %w", err)
	}
	pub := &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}
	k := &rsaKey{pub: pub, alg: r.Alg, use: r.Use, kid: r.Kid, x5t: r.X5t}
	if k.x5t == "" {
		k.x5t = rsaThumbprint(pub)
	}
	return k, nil
}

func (k *rsaKey) Algorithm() string  { return k.alg }
func (k *rsaKey) KeyID() string      { return k.kid }
func (k *rsaKey) Thumbprint() string { return k.x5t }
func (k *rsaKey) Use() string        { return k.use }
func (k *rsaKey) Material() any {
	return &rsaPublicMaterial{N: k.pub.N.Bytes(), E: big.NewInt(int64(k.pub.E)).Bytes()}
}

func rsaSignatureAlgorithm(alg string) (jwa.Algorithm[*rsa.PublicKey], bool) {
	switch alg {
	case "RS256":
		return jwa.RS256, true
	case "RS384":
		return jwa.RS384, true
	case "RS512":
		return jwa.RS512, true
	case "PS256":
		return jwa.PS256, true
	case "PS384":
		return jwa.PS384, true
	case "PS512":
		return jwa.PS512, true
	default:
		return nil, false
	}
}

func (k *rsaKey) Verifier() (Verifier, bool) {
	alg, ok := rsaSignatureAlgorithm(k.alg)
	if !ok {
		return nil, false
	}
	return rsaVerifier{pub: k.pub, alg: alg}, true
}

func (k *rsaKey) Signer() (Signer, bool) {
	if k.priv == nil {
		return nil, false
	}
	alg, ok := rsaSignatureAlgorithm(k.alg)
	if !ok {
		return nil, false
	}
	return rsaSigner{priv: k.priv, alg: alg}, true
}

type rsaVerifier struct {
	pub *rsa.PublicKey
	alg jwa.Algorithm[*rsa.PublicKey]
}

func (v rsaVerifier) Verify(msg, sig []byte) bool { return v.alg.Verify(v.pub, msg, sig) }

type rsaSigner struct {
	priv *rsa.PrivateKey
	alg  jwa.Algorithm[*rsa.PublicKey]
}

func (s rsaSigner) Sign(msg []byte) ([]byte, error) { return s.alg.Sign(s.priv, msg) }

func (k *rsaKey) KeyWrapper(alg string) (jwe.KeyWrapper, bool) {
	switch alg {
	case jwa.RSA1_5, jwa.RSAOAEP, jwa.RSAOAEP256, jwa.RSAOAEP384, jwa.RSAOAEP512:
		return jwe.RSAKeyWrap{Public: k.pub, Algorithm: alg}, true
	default:
		return nil, false
	}
}

func (k *rsaKey) KeyUnwrapper(alg string) (jwe.KeyUnwrapper, bool) {
	if k.priv == nil {
		return nil, false
	}
	switch alg {
	case jwa.RSA1_5, jwa.RSAOAEP, jwa.RSAOAEP256, jwa.RSAOAEP384, jwa.RSAOAEP512:
		return jwe.RSAKeyWrap{Public: k.pub, Private: k.priv, Algorithm: alg}, true
	default:
		return nil, false
	}
}

func (k *rsaKey) AuthenticatedEncryptor(string) (jwe.AuthenticatedEncryptor, bool) { return nil, false }
func (k *rsaKey) AuthenticatedDecryptor(string) (jwe.AuthenticatedDecryptor, bool) { return nil, false }
