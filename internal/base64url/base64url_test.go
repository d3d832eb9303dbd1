package base64url_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-rent/jose/internal/base64url"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("ab"),
		[]byte("abc"),
		[]byte("abcd"),
		{0xff, 0xfe, 0xfd, 0x00, 0x01},
	}
	for _, in := range cases {
		enc := make([]byte, base64url.EncodedLen(len(in)))
		n := base64url.Encode(enc, in)
		enc = enc[:n]

		dec := make([]byte, base64url.DecodedLen(len(enc)))
		m, err := base64url.Decode(dec, enc)
		require.NoError(t, err)
		assert.Equal(t, in, dec[:m])
	}
}

func TestDecodeRejectsInvalidAlphabet(t *testing.T) {
	dst := make([]byte, base64url.DecodedLen(4))
	_, err := base64url.Decode(dst, []byte("a+b="))
	assert.Error(t, err)
}

func TestAppendRoundTrip(t *testing.T) {
	in := []byte("hello world")
	enc := base64url.AppendEncode([]byte("prefix:"), in)
	assert.Equal(t, "prefix:", string(enc[:7]))

	dec, err := base64url.AppendDecode(nil, enc[7:])
	require.NoError(t, err)
	assert.Equal(t, in, dec)
}
