package jwe

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/deep-rent/jose/internal/aeskw"
)

// DirectKey implements the "dir" key management mode: the shared secret is
// used as the CEK directly, and no encrypted-key segment is produced.
type DirectKey struct {
	Secret []byte
}

func (d DirectKey) WrapKey(cek []byte) ([]byte, map[string]any, error) {
	return nil, nil, nil
}

func (d DirectKey) UnwrapKey(encryptedKey []byte, _ map[string]any) ([]byte, error) {
	if len(encryptedKey) != 0 {
		return nil, fmt.Errorf("jwe: dir mode expects an empty encrypted-key segment")
	}
	return d.Secret, nil
}

// AESKeyWrap implements the A128KW/A192KW/A256KW family (RFC 3394 key
// wrap) and the terminal wrapping stage of ECDH-ES+AxxxKW and
// PBES2-HS*+AxxxKW.
type AESKeyWrap struct {
	KEK []byte
}

func (w AESKeyWrap) WrapKey(cek []byte) ([]byte, map[string]any, error) {
	wrapped, err := aeskw.Wrap(w.KEK, cek)
	if err != nil {
		return nil, nil, err
	}
	return wrapped, nil, nil
}

func (w AESKeyWrap) UnwrapKey(encryptedKey []byte, _ map[string]any) ([]byte, error) {
	return aeskw.Unwrap(w.KEK, encryptedKey)
}

// AESGCMKeyWrap implements the A128GCMKW/A192GCMKW/A256GCMKW family: the
// CEK is encrypted with AES-GCM under the key-encryption key, contributing
// "iv" and "tag" header parameters.
type AESGCMKeyWrap struct {
	KEK []byte
}

func (w AESGCMKeyWrap) WrapKey(cek []byte) ([]byte, map[string]any, error) {
	block, err := aes.NewCipher(w.KEK)
	if err != nil {
		return nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, err
	}
	sealed := gcm.Seal(nil, iv, cek, nil)
	ct := sealed[:len(sealed)-gcm.Overhead()]
	tag := sealed[len(sealed)-gcm.Overhead():]

	return ct, map[string]any{"iv": iv, "tag": tag}, nil
}

func (w AESGCMKeyWrap) UnwrapKey(encryptedKey []byte, headerParams map[string]any) ([]byte, error) {
	block, err := aes.NewCipher(w.KEK)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	iv, ok := headerParams["iv"].([]byte)
	if !ok {
		return nil, fmt.Errorf("jwe: A*GCMKW requires an \"iv\" header parameter")
	}
	tag, ok := headerParams["tag"].([]byte)
	if !ok {
		return nil, fmt.Errorf("jwe: A*GCMKW requires a \"tag\" header parameter")
	}
	sealed := append(append([]byte{}, encryptedKey...), tag...)
	cek, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return cek, nil
}
