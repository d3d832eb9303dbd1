package jwk_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-rent/jose/jose/jwa"
	"github.com/deep-rent/jose/jose/jwk"
)

func TestSymmetricSignVerify(t *testing.T) {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)
	key := jwk.NewSymmetric(secret, "HS256", "sig", "sym-1")

	signer, ok := key.Signer()
	require.True(t, ok)
	sig, err := signer.Sign([]byte("payload"))
	require.NoError(t, err)

	verifier, ok := key.Verifier()
	require.True(t, ok)
	assert.True(t, verifier.Verify([]byte("payload"), sig))
	assert.False(t, verifier.Verify([]byte("tampered"), sig))
}

func TestSymmetricKeyWrap(t *testing.T) {
	kek := make([]byte, 16)
	_, _ = rand.Read(kek)
	key := jwk.NewSymmetric(kek, jwa.A128KW, "enc", "kw-1")

	wrapper, ok := key.KeyWrapper(jwa.A128KW)
	require.True(t, ok)
	cek := make([]byte, 16)
	_, _ = rand.Read(cek)
	wrapped, _, err := wrapper.WrapKey(cek)
	require.NoError(t, err)

	unwrapper, ok := key.KeyUnwrapper(jwa.A128KW)
	require.True(t, ok)
	got, err := unwrapper.UnwrapKey(wrapped, nil)
	require.NoError(t, err)
	assert.Equal(t, cek, got)
}

func TestSymmetricContentCipher(t *testing.T) {
	cek := make([]byte, 32)
	_, _ = rand.Read(cek)
	key := jwk.NewSymmetric(cek, "", "enc", "")

	enc, ok := key.AuthenticatedEncryptor(jwa.A256GCM)
	require.True(t, ok)
	iv, ct, tag, err := enc.Encrypt(cek, []byte("hello"), nil)
	require.NoError(t, err)

	dec, ok := key.AuthenticatedDecryptor(jwa.A256GCM)
	require.True(t, ok)
	pt, err := dec.Decrypt(cek, iv, ct, tag, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), pt)
}

func TestRSASignVerifyAndWrap(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	signKey := jwk.NewRSAPrivate(priv, "RS256", "sig", "rsa-1")
	signer, ok := signKey.Signer()
	require.True(t, ok)
	sig, err := signer.Sign([]byte("payload"))
	require.NoError(t, err)

	verifyKey := jwk.NewRSAPublic(&priv.PublicKey, "RS256", "sig", "rsa-1")
	verifier, ok := verifyKey.Verifier()
	require.True(t, ok)
	assert.True(t, verifier.Verify([]byte("payload"), sig))

	wrapKey := jwk.NewRSAPublic(&priv.PublicKey, jwa.RSAOAEP256, "enc", "rsa-1")
	wrapper, ok := wrapKey.KeyWrapper(jwa.RSAOAEP256)
	require.True(t, ok)
	cek := make([]byte, 32)
	_, _ = rand.Read(cek)
	wrapped, _, err := wrapper.WrapKey(cek)
	require.NoError(t, err)

	unwrapKey := jwk.NewRSAPrivate(priv, jwa.RSAOAEP256, "enc", "rsa-1")
	unwrapper, ok := unwrapKey.KeyUnwrapper(jwa.RSAOAEP256)
	require.True(t, ok)
	got, err := unwrapper.UnwrapKey(wrapped, nil)
	require.NoError(t, err)
	assert.Equal(t, cek, got)
}

func TestRSAPublicKeyHasNoUnwrapper(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	key := jwk.NewRSAPublic(&priv.PublicKey, jwa.RSAOAEP256, "enc", "rsa-2")
	_, ok := key.KeyUnwrapper(jwa.RSAOAEP256)
	assert.False(t, ok)
}

func TestECSignVerify(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	signKey := jwk.NewECPrivate(priv, "ES256", "sig", "ec-1")
	signer, ok := signKey.Signer()
	require.True(t, ok)
	sig, err := signer.Sign([]byte("payload"))
	require.NoError(t, err)

	verifyKey := jwk.NewECPublic(&priv.PublicKey, "ES256", "sig", "ec-1")
	verifier, ok := verifyKey.Verifier()
	require.True(t, ok)
	assert.True(t, verifier.Verify([]byte("payload"), sig))
}

func TestECDHESAgreementP256(t *testing.T) {
	alicePriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	aliceKey := jwk.NewECPrivate(alicePriv, jwa.ECDHES, "enc", "alice")

	bobPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	bobKey := jwk.NewECPrivate(bobPriv, jwa.ECDHES, "enc", "bob")

	aliceAgreer := aliceKey.(jwk.KeyAgreer)
	bobAgreer := bobKey.(jwk.KeyAgreer)

	z1, err := aliceAgreer.AgreeWithPeer(bobAgreer.PublicBytes())
	require.NoError(t, err)
	z2, err := bobAgreer.AgreeWithPeer(aliceAgreer.PublicBytes())
	require.NoError(t, err)
	assert.Equal(t, z1, z2)
}

func TestECGenerateEphemeral(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	key := jwk.NewECPrivate(priv, jwa.ECDHES, "enc", "ec-2")
	agreer := key.(jwk.KeyAgreer)

	ephemeral, err := agreer.GenerateEphemeral()
	require.NoError(t, err)
	assert.Equal(t, "P-384", ephemeral.Curve())

	z1, err := agreer.AgreeWithPeer(ephemeral.PublicBytes())
	require.NoError(t, err)
	z2, err := ephemeral.AgreeWithPeer(agreer.PublicBytes())
	require.NoError(t, err)
	assert.Equal(t, z1, z2)
}

func TestOKPX25519Agreement(t *testing.T) {
	aliceKey := jwk.NewOKPPublic("X25519", nil, jwa.ECDHES, "enc", "")
	agreer := aliceKey.(jwk.KeyAgreer)

	alice, err := agreer.GenerateEphemeral()
	require.NoError(t, err)
	bob, err := agreer.GenerateEphemeral()
	require.NoError(t, err)

	z1, err := alice.AgreeWithPeer(bob.PublicBytes())
	require.NoError(t, err)
	z2, err := bob.AgreeWithPeer(alice.PublicBytes())
	require.NoError(t, err)
	assert.Equal(t, z1, z2)
}

func TestOKPX448Agreement(t *testing.T) {
	seed := jwk.NewOKPPublic("X448", nil, jwa.ECDHES, "enc", "")
	agreer := seed.(jwk.KeyAgreer)

	alice, err := agreer.GenerateEphemeral()
	require.NoError(t, err)
	bob, err := agreer.GenerateEphemeral()
	require.NoError(t, err)

	z1, err := alice.AgreeWithPeer(bob.PublicBytes())
	require.NoError(t, err)
	z2, err := bob.AgreeWithPeer(alice.PublicBytes())
	require.NoError(t, err)
	assert.Equal(t, z1, z2)
}

func TestPasswordKeyWrap(t *testing.T) {
	key := jwk.NewPassword([]byte("hunter2"), jwa.PBES2HS256A128KW, 1000, "")
	wrapper, ok := key.KeyWrapper(jwa.PBES2HS256A128KW)
	require.True(t, ok)

	cek := make([]byte, 16)
	_, _ = rand.Read(cek)
	wrapped, params, err := wrapper.WrapKey(cek)
	require.NoError(t, err)

	unwrapKey := jwk.NewPassword([]byte("hunter2"), jwa.PBES2HS256A128KW, 0, "")
	unwrapper, ok := unwrapKey.KeyUnwrapper(jwa.PBES2HS256A128KW)
	require.True(t, ok)
	got, err := unwrapper.UnwrapKey(wrapped, params)
	require.NoError(t, err)
	assert.Equal(t, cek, got)
}

func TestParseWriteRoundTripRSA(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	key := jwk.NewRSAPublic(&priv.PublicKey, "RS256", "sig", "rsa-rt")

	encoded, err := jwk.Write(key)
	require.NoError(t, err)

	parsed, err := jwk.Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, key.KeyID(), parsed.KeyID())
	assert.Equal(t, key.Thumbprint(), parsed.Thumbprint())
}

func TestSetFindByKeyID(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	k1 := jwk.NewRSAPublic(&priv.PublicKey, "RS256", "sig", "one")

	priv2, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	k2 := jwk.NewRSAPublic(&priv2.PublicKey, "RS256", "sig", "two")

	e1, err := jwk.Write(k1)
	require.NoError(t, err)
	e2, err := jwk.Write(k2)
	require.NoError(t, err)
	set, err := jwk.ParseSet([]byte(`{"keys":[` + string(e1) + `,` + string(e2) + `]}`))
	require.NoError(t, err)

	found := set.Find(k2)
	require.Len(t, found, 1)
	assert.Equal(t, k2.Thumbprint(), found[0].Thumbprint())
}

func TestSingletonSetFind(t *testing.T) {
	secret := make([]byte, 32)
	key := jwk.NewSymmetric(secret, "HS256", "sig", "solo")
	set := jwk.Singleton(key)

	found := set.Find(key)
	require.Len(t, found, 1)
	assert.Equal(t, key, found[0])

	assert.Equal(t, 1, set.Len())
}

func TestEmptySet(t *testing.T) {
	assert.Equal(t, 0, jwk.Empty.Len())
	assert.Nil(t, jwk.Empty.Find(jwk.NewSymmetric([]byte("x"), "HS256", "sig", "")))
}
