package jwe

import (
	"crypto"

	"github.com/deep-rent/jose/internal/concatkdf"
)

// ECDHES derives key material from an already-computed elliptic-curve (or
// X25519/X448) Diffie-Hellman shared secret, per RFC 7518 §4.6. Curve
// arithmetic is the caller's responsibility (jose/jwk holds the concrete
// key types); this type only implements the Concat-KDF derivation shared
// by direct agreement and the "+AxxxKW" key-wrapping modes.
type ECDHES struct {
	SharedSecret []byte
	AlgorithmID  []byte // "enc" value for direct mode, "alg" value for +AxxxKW mode
	PartyUInfo   []byte // decoded "apu", may be nil
	PartyVInfo   []byte // decoded "apv", may be nil
}

// Derive produces keyDataLenBits/8 bytes of key material using SHA-256
// Concat-KDF, as RFC 7518 §4.6.2 mandates regardless of the curve or
// content-encryption hash in use.
func (e ECDHES) Derive(keyDataLenBits int) []byte {
	info := concatkdf.FixedInfo(e.AlgorithmID, e.PartyUInfo, e.PartyVInfo, uint32(keyDataLenBits))
	return concatkdf.Derive(crypto.SHA256, e.SharedSecret, info, keyDataLenBits/8)
}
