package jwe

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/deep-rent/jose/internal/aeskw"
	"github.com/deep-rent/jose/jose/jwa"
)

// DefaultPBES2Iterations is used when a PBES2 instance does not specify an
// explicit iteration count for wrapping.
const DefaultPBES2Iterations = 4096

// PBES2 implements the PBES2-HS256+A128KW / PBES2-HS384+A192KW /
// PBES2-HS512+A256KW family: a password is stretched with PBKDF2 into a
// key-encryption key, which then wraps the CEK with AES key wrap.
type PBES2 struct {
	Password   []byte
	Algorithm  string
	Iterations int // wrap-side only; 0 selects DefaultPBES2Iterations
}

func (p PBES2) hashAndKeyBits() (func() hash.Hash, int, error) {
	switch p.Algorithm {
	case jwa.PBES2HS256A128KW:
		return sha256.New, 128, nil
	case jwa.PBES2HS384A192KW:
		return sha512.New384, 192, nil
	case jwa.PBES2HS512A256KW:
		return sha512.New, 256, nil
	default:
		return nil, 0, ErrUnsupportedAlgorithm
	}
}

func (p PBES2) salt(saltInput []byte) []byte {
	salt := make([]byte, 0, len(p.Algorithm)+1+len(saltInput))
	salt = append(salt, p.Algorithm...)
	salt = append(salt, 0x00)
	return append(salt, saltInput...)
}

func (p PBES2) WrapKey(cek []byte) ([]byte, map[string]any, error) {
	h, keyBits, err := p.hashAndKeyBits()
	if err != nil {
		return nil, nil, err
	}
	saltInput := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, saltInput); err != nil {
		return nil, nil, err
	}
	iterations := p.Iterations
	if iterations == 0 {
		iterations = DefaultPBES2Iterations
	}
	kek := pbkdf2.Key(p.Password, p.salt(saltInput), iterations, keyBits/8, h)

	wrapped, err := aeskw.Wrap(kek, cek)
	if err != nil {
		return nil, nil, err
	}
	return wrapped, map[string]any{"p2s": saltInput, "p2c": iterations}, nil
}

func (p PBES2) UnwrapKey(encryptedKey []byte, headerParams map[string]any) ([]byte, error) {
	h, keyBits, err := p.hashAndKeyBits()
	if err != nil {
		return nil, err
	}
	saltInput, ok := headerParams["p2s"].([]byte)
	if !ok {
		return nil, fmt.Errorf("jwe: PBES2 requires a \"p2s\" header parameter")
	}
	iterations, ok := headerParams["p2c"].(int)
	if !ok {
		return nil, fmt.Errorf("jwe: PBES2 requires a \"p2c\" header parameter")
	}
	kek := pbkdf2.Key(p.Password, p.salt(saltInput), iterations, keyBits/8, h)
	return aeskw.Unwrap(kek, encryptedKey)
}
