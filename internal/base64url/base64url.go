// Package base64url provides allocation-free RFC 4648 §5 base64url
// encoding and decoding over caller-supplied buffers.
package base64url

import "encoding/base64"

var enc = base64.RawURLEncoding

// EncodedLen returns the length in bytes of the base64url encoding of an
// input buffer of length n.
func EncodedLen(n int) int {
	return enc.EncodedLen(n)
}

// DecodedLen returns the maximum length in bytes of the decoded data
// corresponding to n bytes of base64url-encoded input.
func DecodedLen(n int) int {
	return enc.DecodedLen(n)
}

// Encode writes the base64url encoding of src into dst, which must be at
// least EncodedLen(len(src)) bytes long, and returns the number of bytes
// written.
func Encode(dst, src []byte) int {
	enc.Encode(dst, src)
	return enc.EncodedLen(len(src))
}

// Decode writes the decoded contents of src into dst, which must be at
// least DecodedLen(len(src)) bytes long, and returns the number of bytes
// written. It fails if src contains a byte outside the base64url alphabet
// or padding, or has an invalid length.
func Decode(dst, src []byte) (int, error) {
	return enc.Decode(dst, src)
}

// AppendEncode appends the base64url encoding of src to dst and returns
// the extended buffer.
func AppendEncode(dst, src []byte) []byte {
	return enc.AppendEncode(dst, src)
}

// AppendDecode appends the decoded contents of src to dst and returns the
// extended buffer.
func AppendDecode(dst, src []byte) ([]byte, error) {
	return enc.AppendDecode(dst, src)
}
