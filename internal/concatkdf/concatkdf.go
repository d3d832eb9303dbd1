// Package concatkdf implements the single-round Concatenation Key
// Derivation Function from NIST SP 800-56A §5.8.1, using the fixed-info
// layout defined by RFC 7518 §4.6 for ECDH-ES.
package concatkdf

import (
	"crypto"
	"encoding/binary"
	"hash"
)

// FixedInfo assembles the OtherInfo value RFC 7518 §4.6.2 requires:
// AlgorithmID || PartyUInfo || PartyVInfo || SuppPubInfo, each of the first
// three prefixed with its own big-endian uint32 length, and SuppPubInfo
// being the big-endian bit length of the derived key.
func FixedInfo(algorithmID, partyUInfo, partyVInfo []byte, keyDataLenBits uint32) []byte {
	out := make([]byte, 0, 4+len(algorithmID)+4+len(partyUInfo)+4+len(partyVInfo)+4)
	out = appendLenPrefixed(out, algorithmID)
	out = appendLenPrefixed(out, partyUInfo)
	out = appendLenPrefixed(out, partyVInfo)
	var suppPub [4]byte
	binary.BigEndian.PutUint32(suppPub[:], keyDataLenBits)
	out = append(out, suppPub[:]...)
	return out
}

func appendLenPrefixed(dst, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	dst = append(dst, lenBuf[:]...)
	return append(dst, data...)
}

// Derive computes keyDataLen bytes of key material from the shared secret
// z and otherInfo, using h as the underlying hash function.
func Derive(h crypto.Hash, z, otherInfo []byte, keyDataLen int) []byte {
	digest := h.New()
	reps := (keyDataLen + digest.Size() - 1) / digest.Size()

	out := make([]byte, 0, reps*digest.Size())
	for counter := uint32(1); counter <= uint32(reps); counter++ {
		out = append(out, round(digest, counter, z, otherInfo)...)
	}
	return out[:keyDataLen]
}

func round(digest hash.Hash, counter uint32, z, otherInfo []byte) []byte {
	digest.Reset()
	var counterBuf [4]byte
	binary.BigEndian.PutUint32(counterBuf[:], counter)
	digest.Write(counterBuf[:])
	digest.Write(z)
	digest.Write(otherInfo)
	return digest.Sum(nil)
}
