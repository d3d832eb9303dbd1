package jwk

import (
	"github.com/deep-rent/jose/jose/jwa"
	"github.com/deep-rent/jose/jose/jwe"
)

// passwordKey is not a JWK-serializable key type at all (RFC 7517 defines
// no "kty" for a raw passphrase); it exists purely as a Key implementation
// so that a passphrase can flow through the same KeyProvider/Key interface
// the reader and writer pipelines use for every other key kind, backing
// PBES2-HS*+A*KW key management.
type passwordKey struct {
	password   []byte
	alg        string
	iterations int
	kid        string
}

// NewPassword builds a Key from a passphrase for PBES2-HS*+A*KW key
// management. iterations chooses the PBKDF2 round count for wrapping; 0
// selects jwe.DefaultPBES2Iterations. It is ignored when unwrapping, since
// the round count travels with the ciphertext in the "p2c" header member.
func NewPassword(password []byte, alg string, iterations int, kid string) Key {
	return &passwordKey{password: password, alg: alg, iterations: iterations, kid: kid}
}

func (k *passwordKey) Algorithm() string  { return k.alg }
func (k *passwordKey) KeyID() string      { return k.kid }
func (k *passwordKey) Thumbprint() string { return "" }
func (k *passwordKey) Use() string        { return "enc" }
func (k *passwordKey) Material() any      { return nil }

func (k *passwordKey) Verifier() (Verifier, bool) { return nil, false }
func (k *passwordKey) Signer() (Signer, bool)     { return nil, false }

func (k *passwordKey) KeyWrapper(alg string) (jwe.KeyWrapper, bool) {
	switch alg {
	case jwa.PBES2HS256A128KW, jwa.PBES2HS384A192KW, jwa.PBES2HS512A256KW:
		iterations := k.iterations
		if iterations == 0 {
			iterations = jwe.DefaultPBES2Iterations
		}
		return jwe.PBES2{Password: k.password, Algorithm: alg, Iterations: iterations}, true
	default:
		return nil, false
	}
}

func (k *passwordKey) KeyUnwrapper(alg string) (jwe.KeyUnwrapper, bool) {
	switch alg {
	case jwa.PBES2HS256A128KW, jwa.PBES2HS384A192KW, jwa.PBES2HS512A256KW:
		return jwe.PBES2{Password: k.password, Algorithm: alg}, true
	default:
		return nil, false
	}
}

func (k *passwordKey) AuthenticatedEncryptor(string) (jwe.AuthenticatedEncryptor, bool) {
	return nil, false
}

func (k *passwordKey) AuthenticatedDecryptor(string) (jwe.AuthenticatedDecryptor, bool) {
	return nil, false
}
