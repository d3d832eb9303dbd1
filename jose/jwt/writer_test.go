package jwt_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-rent/jose/jose/jwa"
	"github.com/deep-rent/jose/jose/jwk"
	"github.com/deep-rent/jose/jose/jwt"
)

func TestWrite_RejectsUnknownDescriptor(t *testing.T) {
	_, err := jwt.Write(nil)
	require.Error(t, err)
	var jerr *jwt.Error
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jwt.InvalidHeader, jerr.Kind)
}

func TestWrite_JWSRequiresSigningKey(t *testing.T) {
	_, err := jwt.Write(&jwt.JwsDescriptor{Payload: []byte(`{}`)})
	require.Error(t, err)
	var jerr *jwt.Error
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jwt.InvalidHeader, jerr.Kind)
}

func TestWrite_JWERequiresEncryptionKeyAndAlgorithms(t *testing.T) {
	key := hmacKey(t, "k1")

	_, err := jwt.Write(&jwt.JweDescriptor{Payload: []byte(`{}`)})
	require.Error(t, err)

	_, err = jwt.Write(&jwt.JweDescriptor{EncryptionKey: key, Encryption: jwa.A128GCM, Payload: []byte(`{}`)})
	require.Error(t, err)
	var jerr *jwt.Error
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jwt.InvalidHeader, jerr.Kind)

	_, err = jwt.Write(&jwt.JweDescriptor{EncryptionKey: key, Algorithm: jwa.Dir, Payload: []byte(`{}`)})
	require.Error(t, err)
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jwt.MissingEncryptionAlgorithm, jerr.Kind)
}

func TestWrite_DirRejectsMismatchedKeySize(t *testing.T) {
	secret := make([]byte, 16) // wrong size for A256GCM
	_, err := rand.Read(secret)
	require.NoError(t, err)
	key := jwk.NewKeyBuilder("dir").Symmetric(secret)

	_, err = jwt.Write(&jwt.JweDescriptor{
		Algorithm:     jwa.Dir,
		Encryption:    jwa.A256GCM,
		EncryptionKey: key,
		Payload:       []byte(`{}`),
	})
	require.Error(t, err)
	var jerr *jwt.Error
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jwt.InvalidHeader, jerr.Kind)
}

func TestWrite_ExtensionHeaderMembers(t *testing.T) {
	key := hmacKey(t, "k1")
	raw, err := jwt.Write(&jwt.JwsDescriptor{
		SigningKey: key,
		Header:     map[string]any{"x-custom": "value", "x-num": 7},
		Payload:    []byte(`{}`),
	})
	require.NoError(t, err)

	policy := jwt.NewPolicyBuilder().WithKeySet(jwk.Singleton(key)).Build()
	doc, err := jwt.Parse(raw, policy)
	require.NoError(t, err)
	defer doc.Dispose()

	header, err := doc.Header()
	require.NoError(t, err)
	v, ok := header.Get("x-custom")
	require.True(t, ok)
	assert.Equal(t, `"value"`, string(v))
}

func TestWrite_NestedDescriptorDefaultsContentType(t *testing.T) {
	signKey := hmacKey(t, "sig1")
	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	encKey := jwk.NewKeyBuilder("dir").Symmetric(secret)

	raw, err := jwt.Write(&jwt.JweDescriptor{
		Algorithm:     jwa.Dir,
		Encryption:    jwa.A128CBCHS256,
		EncryptionKey: encKey,
		Payload:       &jwt.JwsDescriptor{SigningKey: signKey, Payload: []byte(`{}`)},
	})
	require.NoError(t, err)

	policy := jwt.NewPolicyBuilder().WithKeySet(jwk.Singleton(encKey)).IgnoreNestedToken().Build()
	doc, err := jwt.Parse(raw, policy)
	require.NoError(t, err)
	defer doc.Dispose()

	header, err := doc.Header()
	require.NoError(t, err)
	assert.Equal(t, "JWT", header.ContentType())
}
