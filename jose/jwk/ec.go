package jwk

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/cloudflare/circl/dh/x448"

	"github.com/deep-rent/jose/jose/jwa"
	"github.com/deep-rent/jose/jose/jwe"
)

type ecPublicMaterial struct {
	Crv string
	X   []byte
	Y   []byte
}

type okpPublicMaterial struct {
	Crv string
	X   []byte
}

// ecKey wraps an ECDSA key on P-256/P-384/P-521. It offers Verifier/Signer
// when "alg" names an ESxxx algorithm and KeyAgreer for ECDH-ES regardless
// of "alg", since the same curve serves both purposes.
type ecKey struct {
	pub  *ecdsa.PublicKey
	priv *ecdsa.PrivateKey
	alg  string
	use  string
	kid  string
	x5t  string
}

// NewECPublic builds an EC Key from a public key only.
func NewECPublic(pub *ecdsa.PublicKey, alg, use, kid string) Key {
	k := &ecKey{pub: pub, alg: alg, use: use, kid: kid}
	k.x5t = ecThumbprint(pub)
	return k
}

// NewECPrivate builds an EC Key backed by a full private key.
func NewECPrivate(priv *ecdsa.PrivateKey, alg, use, kid string) Key {
	k := &ecKey{pub: &priv.PublicKey, priv: priv, alg: alg, use: use, kid: kid}
	k.x5t = ecThumbprint(&priv.PublicKey)
	return k
}

func curveName(c elliptic.Curve) string {
	switch c {
	case elliptic.P256():
		return "P-256"
	case elliptic.P384():
		return "P-384"
	case elliptic.P521():
		return "P-521"
	default:
		return ""
	}
}

func curveByName(name string) (elliptic.Curve, bool) {
	switch name {
	case "P-256":
		return elliptic.P256(), true
	case "P-384":
		return elliptic.P384(), true
	case "P-521":
		return elliptic.P521(), true
	default:
		return nil, false
	}
}

func ecThumbprint(pub *ecdsa.PublicKey) string {
	size := (pub.Curve.Params().BitSize + 7) / 8
	x := make([]byte, size)
	y := make([]byte, size)
	pub.X.FillBytes(x)
	pub.Y.FillBytes(y)
	return thumbprintRFC7638(map[string]string{
		"kty": "EC",
		"crv": curveName(pub.Curve),
		"x":   b64(x),
		"y":   b64(y),
	})
}

func decodeECPublic(r *raw) (Key, error) {
	curve, ok := curveByName(r.Crv)
	if !ok {
		return nil, fmt.Errorf("jwk: unsupported EC curve %q", r.Crv)
	}
	if r.X == "" || r.Y == "" {
		return nil, fmt.Errorf("jwk: EC key missing %q or %q", "x", "y")
	}
	xBytes, err := unb64(r.X)
	if err != nil {
		return nil, fmt.Errorf("jwk: EC x-coordinate: %w", err)
	}
	yBytes, err := unb64(r.Y)
	if err != nil {
		return nil, fmt.Errorf("jwk: EC y-coordinate: %w", err)
	}
	pub := &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}
	k := &ecKey{pub: pub, alg: r.Alg, use: r.Use, kid: r.Kid, x5t: r.X5t}
	if k.x5t == "" {
		k.x5t = ecThumbprint(pub)
	}
	return k, nil
}

func (k *ecKey) Algorithm() string  { return k.alg }
func (k *ecKey) KeyID() string      { return k.kid }
func (k *ecKey) Thumbprint() string { return k.x5t }
func (k *ecKey) Use() string        { return k.use }
func (k *ecKey) Material() any {
	size := (k.pub.Curve.Params().BitSize + 7) / 8
	x := make([]byte, size)
	y := make([]byte, size)
	k.pub.X.FillBytes(x)
	k.pub.Y.FillBytes(y)
	return &ecPublicMaterial{Crv: curveName(k.pub.Curve), X: x, Y: y}
}

func ecSignatureAlgorithm(alg string) (jwa.Algorithm[*ecdsa.PublicKey], bool) {
	switch alg {
	case "ES256":
		return jwa.ES256, true
	case "ES384":
		return jwa.ES384, true
	case "ES512":
		return jwa.ES512, true
	default:
		return nil, false
	}
}

func (k *ecKey) Verifier() (Verifier, bool) {
	alg, ok := ecSignatureAlgorithm(k.alg)
	if !ok {
		return nil, false
	}
	return ecVerifier{pub: k.pub, alg: alg}, true
}

func (k *ecKey) Signer() (Signer, bool) {
	if k.priv == nil {
		return nil, false
	}
	alg, ok := ecSignatureAlgorithm(k.alg)
	if !ok {
		return nil, false
	}
	return ecSigner{priv: k.priv, alg: alg}, true
}

type ecVerifier struct {
	pub *ecdsa.PublicKey
	alg jwa.Algorithm[*ecdsa.PublicKey]
}

func (v ecVerifier) Verify(msg, sig []byte) bool { return v.alg.Verify(v.pub, msg, sig) }

type ecSigner struct {
	priv *ecdsa.PrivateKey
	alg  jwa.Algorithm[*ecdsa.PublicKey]
}

func (s ecSigner) Sign(msg []byte) ([]byte, error) { return s.alg.Sign(s.priv, msg) }

func (k *ecKey) KeyWrapper(string) (jwe.KeyWrapper, bool)   { return nil, false }
func (k *ecKey) KeyUnwrapper(string) (jwe.KeyUnwrapper, bool) { return nil, false }

func (k *ecKey) AuthenticatedEncryptor(string) (jwe.AuthenticatedEncryptor, bool) { return nil, false }
func (k *ecKey) AuthenticatedDecryptor(string) (jwe.AuthenticatedDecryptor, bool) { return nil, false }

func (k *ecKey) Curve() string { return curveName(k.pub.Curve) }

func (k *ecKey) PublicBytes() []byte {
	size := (k.pub.Curve.Params().BitSize + 7) / 8
	out := make([]byte, 2*size)
	k.pub.X.FillBytes(out[:size])
	k.pub.Y.FillBytes(out[size:])
	return out
}

func (k *ecKey) GenerateEphemeral() (KeyAgreer, error) {
	priv, err := ecdsa.GenerateKey(k.pub.Curve, rand.Reader)
	if err != nil {
		return nil, err
	}
	return &ecKey{pub: &priv.PublicKey, priv: priv, alg: jwa.ECDHES}, nil
}

func (k *ecKey) AgreeWithPeer(peerPublicBytes []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, fmt.Errorf("jwk: ECDH agreement requires a private key")
	}
	stdCurve, err := stdECDHCurve(k.pub.Curve)
	if err != nil {
		return nil, err
	}
	size := (k.pub.Curve.Params().BitSize + 7) / 8
	if len(peerPublicBytes) != 2*size {
		return nil, fmt.Errorf("jwk: malformed peer public key for %s", curveName(k.pub.Curve))
	}
	uncompressed := make([]byte, 1+2*size)
	uncompressed[0] = 4
	copy(uncompressed[1:], peerPublicBytes)

	peerPub, err := stdCurve.NewPublicKey(uncompressed)
	if err != nil {
		return nil, fmt.Errorf("jwk: invalid peer public key: %w", err)
	}
	privBytes := k.priv.D.FillBytes(make([]byte, size))
	privKey, err := stdCurve.NewPrivateKey(privBytes)
	if err != nil {
		return nil, err
	}
	return privKey.ECDH(peerPub)
}

func stdECDHCurve(c elliptic.Curve) (ecdh.Curve, error) {
	switch c {
	case elliptic.P256():
		return ecdh.P256(), nil
	case elliptic.P384():
		return ecdh.P384(), nil
	case elliptic.P521():
		return ecdh.P521(), nil
	default:
		return nil, fmt.Errorf("jwk: curve has no ECDH support")
	}
}

// okpKey wraps an OKP (octet key pair) key used exclusively for ECDH-ES
// agreement: X25519 or X448. Neither curve supports JWS signing under this
// module's algorithm set.
type okpKey struct {
	crv        string
	pub        []byte
	priv       []byte // nil unless this key can perform agreement
	alg        string
	use        string
	kid        string
	x5t        string
}

// NewOKPPublic builds an OKP Key from a raw public value.
func NewOKPPublic(crv string, pub []byte, alg, use, kid string) Key {
	k := &okpKey{crv: crv, pub: pub, alg: alg, use: use, kid: kid}
	k.x5t = thumbprintRFC7638(map[string]string{"kty": "OKP", "crv": crv, "x": b64(pub)})
	return k
}

// NewOKPPrivate builds an OKP Key from raw public and private values.
func NewOKPPrivate(crv string, pub, priv []byte, alg, use, kid string) Key {
	k := &okpKey{crv: crv, pub: pub, priv: priv, alg: alg, use: use, kid: kid}
	k.x5t = thumbprintRFC7638(map[string]string{"kty": "OKP", "crv": crv, "x": b64(pub)})
	return k
}

func decodeOKPPublic(r *raw) (Key, error) {
	if r.Crv != "X25519" && r.Crv != "X448" {
		return nil, fmt.Errorf("jwk: unsupported OKP curve %q", r.Crv)
	}
	if r.X == "" {
		return nil, fmt.Errorf("jwk: OKP key missing %q", "x")
	}
	pub, err := unb64(r.X)
	if err != nil {
		return nil, fmt.Errorf("jwk: OKP x value: %w", err)
	}
	k := &okpKey{crv: r.Crv, pub: pub, alg: r.Alg, use: r.Use, kid: r.Kid, x5t: r.X5t}
	if k.x5t == "" {
		k.x5t = thumbprintRFC7638(map[string]string{"kty": "OKP", "crv": r.Crv, "x": r.X})
	}
	return k, nil
}

func (k *okpKey) Algorithm() string  { return k.alg }
func (k *okpKey) KeyID() string      { return k.kid }
func (k *okpKey) Thumbprint() string { return k.x5t }
func (k *okpKey) Use() string        { return k.use }
func (k *okpKey) Material() any      { return &okpPublicMaterial{Crv: k.crv, X: k.pub} }

func (k *okpKey) Verifier() (Verifier, bool) { return nil, false }
func (k *okpKey) Signer() (Signer, bool)     { return nil, false }

func (k *okpKey) KeyWrapper(string) (jwe.KeyWrapper, bool)   { return nil, false }
func (k *okpKey) KeyUnwrapper(string) (jwe.KeyUnwrapper, bool) { return nil, false }

func (k *okpKey) AuthenticatedEncryptor(string) (jwe.AuthenticatedEncryptor, bool) { return nil, false }
func (k *okpKey) AuthenticatedDecryptor(string) (jwe.AuthenticatedDecryptor, bool) { return nil, false }

func (k *okpKey) Curve() string        { return k.crv }
func (k *okpKey) PublicBytes() []byte { return k.pub }

func (k *okpKey) GenerateEphemeral() (KeyAgreer, error) {
	switch k.crv {
	case "X25519":
		priv, err := ecdh.X25519().GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return &okpKey{crv: "X25519", pub: priv.PublicKey().Bytes(), priv: priv.Bytes(), alg: jwa.ECDHES}, nil
	case "X448":
		var pub, priv x448.Key
		if _, err := rand.Read(priv[:]); err != nil {
			return nil, err
		}
		x448.KeyGen(&pub, &priv)
		return &okpKey{crv: "X448", pub: pub[:], priv: priv[:], alg: jwa.ECDHES}, nil
	default:
		return nil, fmt.Errorf("jwk: unsupported OKP curve %q", k.crv)
	}
}

func (k *okpKey) AgreeWithPeer(peerPublicBytes []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, fmt.Errorf("jwk: ECDH agreement requires a private key")
	}
	switch k.crv {
	case "X25519":
		privKey, err := ecdh.X25519().NewPrivateKey(k.priv)
		if err != nil {
			return nil, err
		}
		peerPub, err := ecdh.X25519().NewPublicKey(peerPublicBytes)
		if err != nil {
			return nil, fmt.Errorf("jwk: invalid peer public key: %w", err)
		}
		return privKey.ECDH(peerPub)
	case "X448":
		if len(peerPublicBytes) != x448.Size {
			return nil, fmt.Errorf("jwk: malformed X448 peer public key")
		}
		var shared, priv, peer x448.Key
		copy(priv[:], k.priv)
		copy(peer[:], peerPublicBytes)
		if !x448.Shared(&shared, &priv, &peer) {
			return nil, fmt.Errorf("jwk: X448 agreement produced a low-order point")
		}
		return shared[:], nil
	default:
		return nil, fmt.Errorf("jwk: unsupported OKP curve %q", k.crv)
	}
}
