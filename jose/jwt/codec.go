package jwt

import (
	"fmt"

	"github.com/deep-rent/jose/internal/base64url"
)

// dot is the delimiter between compact-serialization segments.
const dot = byte('.')

// segments holds the byte offsets of a tokenized compact-serialization
// token's dot-separated parts, without copying or allocating.
type segments struct {
	parts [5][]byte
	n     int
}

// tokenize splits a compact-serialization token into 3 (JWS) or 5 (JWE)
// segments. It fails if the dot count matches neither shape.
func tokenize(in []byte) (segments, error) {
	var segs segments
	start := 0
	for i := 0; i < len(in); i++ {
		if in[i] != dot {
			continue
		}
		if segs.n == len(segs.parts) {
			return segments{}, newError(MalformedToken, "", fmt.Errorf("token has too many segments"))
		}
		segs.parts[segs.n] = in[start:i]
		segs.n++
		start = i + 1
	}
	if segs.n == len(segs.parts) {
		return segments{}, newError(MalformedToken, "", fmt.Errorf("token has too many segments"))
	}
	segs.parts[segs.n] = in[start:]
	segs.n++

	switch segs.n {
	case 3, 5:
		return segs, nil
	default:
		return segments{}, newError(MalformedToken, "", fmt.Errorf("expected 3 or 5 segments, got %d", segs.n))
	}
}

func (s segments) isJWE() bool { return s.n == 5 }

// decode base64url-decodes src into a freshly allocated slice.
func decode(src []byte) ([]byte, error) {
	dst := make([]byte, base64url.DecodedLen(len(src)))
	n, err := base64url.Decode(dst, src)
	if err != nil {
		return nil, newError(MalformedToken, "", err)
	}
	return dst[:n], nil
}

// decodeInto base64url-decodes src into dst, which must be at least
// base64url.DecodedLen(len(src)) bytes, and returns the written prefix.
func decodeInto(dst, src []byte) ([]byte, error) {
	n, err := base64url.Decode(dst, src)
	if err != nil {
		return nil, newError(MalformedToken, "", err)
	}
	return dst[:n], nil
}

// encode base64url-encodes src into a freshly allocated slice.
func encode(src []byte) []byte {
	dst := make([]byte, base64url.EncodedLen(len(src)))
	base64url.Encode(dst, src)
	return dst
}
