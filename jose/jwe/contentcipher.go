package jwe

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/deep-rent/jose/jose/jwa"
)

// AESGCM implements the A128GCM/A192GCM/A256GCM content encryption family.
type AESGCM struct{}

func (AESGCM) Encrypt(cek, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, err
	}
	iv = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, nil, err
	}
	sealed := gcm.Seal(nil, iv, plaintext, aad)
	ciphertext = sealed[:len(sealed)-gcm.Overhead()]
	tag = sealed[len(sealed)-gcm.Overhead():]
	return iv, ciphertext, tag, nil
}

func (AESGCM) Decrypt(cek, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	sealed := append(append([]byte{}, ciphertext...), tag...)
	pt, err := gcm.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return pt, nil
}

// AESCBCHMAC implements the A128CBC-HS256/A192CBC-HS384/A256CBC-HS512
// content encryption family (RFC 7518 §5.2): AES-CBC with PKCS#7 padding,
// encrypt-then-MAC using a truncated HMAC tag over
// AAD || IV || ciphertext || len64(AAD in bits).
type AESCBCHMAC struct {
	Enc string
}

func (c AESCBCHMAC) split(cek []byte) (macKey, encKey []byte, newHash func() hash.Hash, tagLen int, err error) {
	ce, ok := jwa.LookupContentEncryption(c.Enc)
	if !ok || !ce.CBCHMAC {
		return nil, nil, nil, 0, ErrUnsupportedAlgorithm
	}
	macBytes := ce.MACKeyBits / 8
	encBytes := ce.EncKeyBits / 8
	if len(cek) != macBytes+encBytes {
		return nil, nil, nil, 0, fmt.Errorf("jwe: CEK length %d does not match %s (want %d)", len(cek), c.Enc, macBytes+encBytes)
	}
	var hf func() hash.Hash
	switch ce.MACKeyBits {
	case 128:
		hf = sha256.New
	case 192:
		hf = sha512.New384
	case 256:
		hf = sha512.New
	default:
		return nil, nil, nil, 0, ErrUnsupportedAlgorithm
	}
	return cek[:macBytes], cek[macBytes:], hf, encBytes, nil
}

func macInput(aad, iv, ciphertext []byte) []byte {
	al := make([]byte, 8)
	binary.BigEndian.PutUint64(al, uint64(len(aad))*8)
	out := make([]byte, 0, len(aad)+len(iv)+len(ciphertext)+8)
	out = append(out, aad...)
	out = append(out, iv...)
	out = append(out, ciphertext...)
	out = append(out, al...)
	return out
}

func (c AESCBCHMAC) Encrypt(cek, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error) {
	macKey, encKey, newHash, _, err := c.split(cek)
	if err != nil {
		return nil, nil, nil, err
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, nil, nil, err
	}
	iv = make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, nil, err
	}
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	mac := hmac.New(newHash, macKey)
	mac.Write(macInput(aad, iv, ciphertext))
	full := mac.Sum(nil)
	tag = full[:len(macKey)]
	return iv, ciphertext, tag, nil
}

func (c AESCBCHMAC) Decrypt(cek, iv, ciphertext, tag, aad []byte) ([]byte, error) {
	macKey, encKey, newHash, _, err := c.split(cek)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(newHash, macKey)
	mac.Write(macInput(aad, iv, ciphertext))
	full := mac.Sum(nil)
	expected := full[:len(macKey)]
	if subtle.ConstantTimeCompare(expected, tag) != 1 {
		return nil, ErrAuthenticationFailed
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("jwe: ciphertext is not a multiple of the block size")
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
	return pkcs7Unpad(padded)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("jwe: empty plaintext block")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, fmt.Errorf("jwe: invalid padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("jwe: invalid padding")
		}
	}
	return data[:len(data)-padLen], nil
}
