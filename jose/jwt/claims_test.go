package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-rent/jose/jose/jwk"
	"github.com/deep-rent/jose/jose/jwt"
)

type customClaims struct {
	jwt.Reserved
	Role string `json:"rol"`
}

func TestDecode_CustomClaims(t *testing.T) {
	key := hmacKey(t, "k1")
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	s := jwt.NewSigner(key).WithClock(func() time.Time { return now })
	raw, err := s.Sign(&customClaims{
		Reserved: jwt.Reserved{Sub: "nina", Aud: []string{"api", "web"}},
		Role:     "admin",
	})
	require.NoError(t, err)

	policy := jwt.NewPolicyBuilder().WithKeySet(jwk.Singleton(key)).Build()
	doc, err := jwt.Parse(raw, policy)
	require.NoError(t, err)
	defer doc.Dispose()

	claims, err := jwt.Decode[customClaims](doc)
	require.NoError(t, err)
	assert.Equal(t, "nina", claims.Sub)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, []string{"api", "web"}, []string(claims.Aud))
	assert.Equal(t, now.Unix(), claims.Iat.Unix())
}

func TestDecode_DisposedDocument(t *testing.T) {
	key := hmacKey(t, "k1")
	raw, err := jwt.Write(&jwt.JwsDescriptor{SigningKey: key, Payload: []byte(`{}`)})
	require.NoError(t, err)

	policy := jwt.NewPolicyBuilder().WithKeySet(jwk.Singleton(key)).Build()
	doc, err := jwt.Parse(raw, policy)
	require.NoError(t, err)
	doc.Dispose()

	_, err = jwt.Decode[customClaims](doc)
	require.Error(t, err)
	var jerr *jwt.Error
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jwt.InstanceInvalidated, jerr.Kind)
}
