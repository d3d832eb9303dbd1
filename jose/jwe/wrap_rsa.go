package jwe

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"

	"github.com/deep-rent/jose/jose/jwa"
)

// RSAKeyWrap implements RSA1_5, RSA-OAEP, and RSA-OAEP-256/384/512 CEK
// wrapping.
type RSAKeyWrap struct {
	Public    *rsa.PublicKey
	Private   *rsa.PrivateKey
	Algorithm string
}

func (w RSAKeyWrap) WrapKey(cek []byte) ([]byte, map[string]any, error) {
	if w.Public == nil {
		return nil, nil, fmt.Errorf("jwe: RSA key wrap requires a public key")
	}
	switch w.Algorithm {
	case jwa.RSA1_5:
		ct, err := rsa.EncryptPKCS1v15(rand.Reader, w.Public, cek)
		return ct, nil, err
	case jwa.RSAOAEP:
		ct, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, w.Public, cek, nil)
		return ct, nil, err
	case jwa.RSAOAEP256:
		ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, w.Public, cek, nil)
		return ct, nil, err
	case jwa.RSAOAEP384:
		ct, err := rsa.EncryptOAEP(crypto.SHA384.New(), rand.Reader, w.Public, cek, nil)
		return ct, nil, err
	case jwa.RSAOAEP512:
		ct, err := rsa.EncryptOAEP(crypto.SHA512.New(), rand.Reader, w.Public, cek, nil)
		return ct, nil, err
	default:
		return nil, nil, ErrUnsupportedAlgorithm
	}
}

func (w RSAKeyWrap) UnwrapKey(encryptedKey []byte, _ map[string]any) ([]byte, error) {
	if w.Private == nil {
		return nil, fmt.Errorf("jwe: RSA key unwrap requires a private key")
	}
	switch w.Algorithm {
	case jwa.RSA1_5:
		return rsa.DecryptPKCS1v15(rand.Reader, w.Private, encryptedKey)
	case jwa.RSAOAEP:
		return rsa.DecryptOAEP(sha1.New(), rand.Reader, w.Private, encryptedKey, nil)
	case jwa.RSAOAEP256:
		return rsa.DecryptOAEP(sha256.New(), rand.Reader, w.Private, encryptedKey, nil)
	case jwa.RSAOAEP384:
		return rsa.DecryptOAEP(crypto.SHA384.New(), rand.Reader, w.Private, encryptedKey, nil)
	case jwa.RSAOAEP512:
		return rsa.DecryptOAEP(crypto.SHA512.New(), rand.Reader, w.Private, encryptedKey, nil)
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}
