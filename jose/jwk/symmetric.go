package jwk

import (
	"crypto/aes"
	"fmt"

	"github.com/deep-rent/jose/jose/jwa"
	"github.com/deep-rent/jose/jose/jwe"
)

// symmetricKey wraps a raw octet-sequence key ("oct"). Depending on its
// "alg", it can back HMAC signing, AES key wrap, or direct/AES-GCM key
// management, and it always offers itself as a content cipher key.
type symmetricKey struct {
	secret []byte
	alg    string
	use    string
	kid    string
	x5t    string
}

// NewSymmetric builds a symmetric Key from raw secret bytes. alg selects
// the family the key participates in (an "HS*" signature algorithm, an
// "A*KW"/"A*GCMKW" key management algorithm, or "dir"); use is typically
// "sig" or "enc".
func NewSymmetric(secret []byte, alg, use, kid string) Key {
	k := &symmetricKey{secret: secret, alg: alg, use: use, kid: kid}
	k.x5t = thumbprintRFC7638(map[string]string{
		"kty": "oct",
		"k":   b64(secret),
	})
	return k
}

func decodeSymmetric(r *raw) (Key, error) {
	if r.K == "" {
		return nil, fmt.Errorf("jwk: oct key missing %q", "k")
	}
	secret, err := unb64(r.K)
	if err != nil {
		return nil, fmt.Errorf("jwk: oct key: %w", err)
	}
	k := &symmetricKey{secret: secret, alg: r.Alg, use: r.Use, kid: r.Kid, x5t: r.X5t}
	if k.x5t == "" {
		k.x5t = thumbprintRFC7638(map[string]string{"kty": "oct", "k": r.K})
	}
	return k, nil
}

func encodeMaterial(material any, r *raw) error {
	switch m := material.(type) {
	case []byte:
		r.Kty = "oct"
		r.K = b64(m)
	case *rsaPublicMaterial:
		r.Kty = "RSA"
		r.N = b64(m.N)
		r.E = b64(m.E)
	case *ecPublicMaterial:
		r.Kty = "EC"
		r.Crv = m.Crv
		r.X = b64(m.X)
		r.Y = b64(m.Y)
	case *okpPublicMaterial:
		r.Kty = "OKP"
		r.Crv = m.Crv
		r.X = b64(m.X)
	default:
		return fmt.Errorf("jwk: cannot encode material of type %T", material)
	}
	return nil
}

func (k *symmetricKey) Algorithm() string { return k.alg }
func (k *symmetricKey) KeyID() string     { return k.kid }
func (k *symmetricKey) Thumbprint() string { return k.x5t }
func (k *symmetricKey) Use() string       { return k.use }
func (k *symmetricKey) Material() any     { return k.secret }

func (k *symmetricKey) Verifier() (Verifier, bool) {
	h, ok := hmacAlgorithm(k.alg)
	if !ok {
		return nil, false
	}
	return hmacVerifier{secret: k.secret, alg: h}, true
}

func (k *symmetricKey) Signer() (Signer, bool) {
	h, ok := hmacAlgorithm(k.alg)
	if !ok {
		return nil, false
	}
	return hmacSigner{secret: k.secret, alg: h}, true
}

// hmacAlg is satisfied by the unexported jwa.hs type: SignHMAC/VerifyHMAC
// operate on the raw secret directly, unlike the asymmetric families that
// go through a crypto.Signer.
type hmacAlg interface {
	SignHMAC(secret, msg []byte) []byte
	VerifyHMAC(secret, msg, sig []byte) bool
}

func hmacAlgorithm(alg string) (hmacAlg, bool) {
	switch alg {
	case "HS256":
		return jwa.HS256, true
	case "HS384":
		return jwa.HS384, true
	case "HS512":
		return jwa.HS512, true
	default:
		return nil, false
	}
}

type hmacSigner struct {
	secret []byte
	alg    hmacAlg
}

func (s hmacSigner) Sign(msg []byte) ([]byte, error) {
	return s.alg.SignHMAC(s.secret, msg), nil
}

type hmacVerifier struct {
	secret []byte
	alg    hmacAlg
}

func (v hmacVerifier) Verify(msg, sig []byte) bool {
	return v.alg.VerifyHMAC(v.secret, msg, sig)
}

func (k *symmetricKey) KeyWrapper(alg string) (jwe.KeyWrapper, bool) {
	switch alg {
	case jwa.Dir:
		return jwe.DirectKey{Secret: k.secret}, true
	case jwa.A128KW, jwa.A192KW, jwa.A256KW:
		if err := checkAESKeySize(alg, k.secret); err != nil {
			return nil, false
		}
		return jwe.AESKeyWrap{KEK: k.secret}, true
	case jwa.A128GCMKW, jwa.A192GCMKW, jwa.A256GCMKW:
		if err := checkAESKeySize(alg, k.secret); err != nil {
			return nil, false
		}
		return jwe.AESGCMKeyWrap{KEK: k.secret}, true
	default:
		return nil, false
	}
}

func (k *symmetricKey) KeyUnwrapper(alg string) (jwe.KeyUnwrapper, bool) {
	w, ok := k.KeyWrapper(alg)
	if !ok {
		return nil, false
	}
	u, ok := w.(jwe.KeyUnwrapper)
	if !ok {
		return nil, false
	}
	return u, true
}

func checkAESKeySize(alg string, key []byte) error {
	var want int
	switch alg {
	case jwa.A128KW, jwa.A128GCMKW:
		want = 16
	case jwa.A192KW, jwa.A192GCMKW:
		want = 24
	case jwa.A256KW, jwa.A256GCMKW:
		want = 32
	}
	if len(key) != want {
		return fmt.Errorf("jwk: %s requires a %d-byte key, got %d", alg, want, len(key))
	}
	_, err := aes.NewCipher(key)
	return err
}

func (k *symmetricKey) AuthenticatedEncryptor(enc string) (jwe.AuthenticatedEncryptor, bool) {
	return contentCipher(enc)
}

func (k *symmetricKey) AuthenticatedDecryptor(enc string) (jwe.AuthenticatedDecryptor, bool) {
	return contentCipher(enc)
}

func contentCipher(enc string) (interface {
	jwe.AuthenticatedEncryptor
	jwe.AuthenticatedDecryptor
}, bool) {
	ce, ok := jwa.LookupContentEncryption(enc)
	if !ok {
		return nil, false
	}
	if ce.CBCHMAC {
		return jwe.AESCBCHMAC{Enc: enc}, true
	}
	return jwe.AESGCM{}, true
}
