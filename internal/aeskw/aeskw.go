// Package aeskw implements the AES key wrap algorithm defined in RFC 3394,
// used by the JWE A128KW/A192KW/A256KW family and as the terminal wrapping
// step of ECDH-ES+AxxxKW and PBES2-HS*+AxxxKW.
package aeskw

import (
	"crypto/aes"
	"encoding/binary"
	"errors"
)

var defaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// ErrUnwrapFailed indicates that the integrity check on the wrapped key
// failed, meaning the key-encryption key is wrong or the input was
// tampered with.
var ErrUnwrapFailed = errors.New("aeskw: integrity check failed")

// Wrap wraps a key-encryption key kek around cek, per RFC 3394 §2.2.1.
// len(cek) must be a multiple of 8 and at least 16.
func Wrap(kek, cek []byte) ([]byte, error) {
	if len(cek) < 16 || len(cek)%8 != 0 {
		return nil, errors.New("aeskw: plaintext key length must be a multiple of 8, at least 16 bytes")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(cek) / 8
	r := make([][8]byte, n)
	for i := range r {
		copy(r[i][:], cek[i*8:(i+1)*8])
	}

	a := defaultIV
	buf := make([]byte, 16)
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])
			block.Encrypt(buf, buf)

			t := uint64(n*j + i)
			var tb [8]byte
			binary.BigEndian.PutUint64(tb[:], t)
			for k := range a {
				a[k] = buf[k] ^ tb[k]
			}
			copy(r[i-1][:], buf[8:])
		}
	}

	out := make([]byte, 8+len(cek))
	copy(out[:8], a[:])
	for i, blk := range r {
		copy(out[8+i*8:], blk[:])
	}
	return out, nil
}

// Unwrap reverses Wrap, returning ErrUnwrapFailed if the integrity check
// does not pass.
func Unwrap(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped) < 24 || len(wrapped)%8 != 0 {
		return nil, errors.New("aeskw: wrapped key length must be a multiple of 8, at least 24 bytes")
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(wrapped)/8 - 1
	var a [8]byte
	copy(a[:], wrapped[:8])

	r := make([][8]byte, n)
	for i := range r {
		copy(r[i][:], wrapped[8+i*8:8+(i+1)*8])
	}

	buf := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			var tb [8]byte
			binary.BigEndian.PutUint64(tb[:], t)

			var xored [8]byte
			for k := range a {
				xored[k] = a[k] ^ tb[k]
			}
			copy(buf[:8], xored[:])
			copy(buf[8:], r[i-1][:])
			block.Decrypt(buf, buf)

			copy(a[:], buf[:8])
			copy(r[i-1][:], buf[8:])
		}
	}

	if a != defaultIV {
		return nil, ErrUnwrapFailed
	}

	out := make([]byte, n*8)
	for i, blk := range r {
		copy(out[i*8:], blk[:])
	}
	return out, nil
}
