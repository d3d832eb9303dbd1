package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-rent/jose/jose/jwk"
	"github.com/deep-rent/jose/jose/jwt"
)

func TestSigner_StampsDefaults(t *testing.T) {
	key := hmacKey(t, "k1")
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s := jwt.NewSigner(key).
		WithIssuer("nexus").
		WithAudience("api").
		WithLifetime(time.Hour).
		WithClock(func() time.Time { return now })

	raw, err := s.Sign(map[string]any{"sub": "leah"})
	require.NoError(t, err)

	policy := jwt.NewPolicyBuilder().
		WithKeySet(jwk.Singleton(key)).
		WithClock(func() time.Time { return now }).
		Build()
	doc, err := jwt.Parse(raw, policy)
	require.NoError(t, err)
	defer doc.Dispose()

	payload, err := doc.Payload()
	require.NoError(t, err)
	assert.Equal(t, "leah", payload.Subject())
	assert.Equal(t, "nexus", payload.Issuer())
	assert.Equal(t, []string{"api"}, payload.Audience())
	assert.Equal(t, now.Unix(), payload.IssuedAt().Unix())
	assert.Equal(t, now.Add(time.Hour).Unix(), payload.ExpiresAt().Unix())
	assert.NotEmpty(t, payload.ID())
}

func TestSigner_JTIUniquePerToken(t *testing.T) {
	key := hmacKey(t, "k1")
	s := jwt.NewSigner(key)

	raw1, err := s.Sign(map[string]any{"sub": "a"})
	require.NoError(t, err)
	raw2, err := s.Sign(map[string]any{"sub": "a"})
	require.NoError(t, err)

	policy := jwt.NewPolicyBuilder().WithKeySet(jwk.Singleton(key)).Build()
	doc1, err := jwt.Parse(raw1, policy)
	require.NoError(t, err)
	defer doc1.Dispose()
	doc2, err := jwt.Parse(raw2, policy)
	require.NoError(t, err)
	defer doc2.Dispose()

	p1, _ := doc1.Payload()
	p2, _ := doc2.Payload()
	assert.NotEqual(t, p1.ID(), p2.ID())
}

func TestSigner_KeyRotation(t *testing.T) {
	k1 := hmacKey(t, "k1")
	k2 := hmacKey(t, "k2")
	s := jwt.NewSigner(k1, k2)

	policy := jwt.NewPolicyBuilder().
		WithKeySet(jwk.Singleton(k1)).
		WithKeyProviders(jwt.StaticProvider(jwk.Singleton(k2))).
		Build()

	expectKid := func(raw []byte, kid string) {
		doc, err := jwt.Parse(raw, policy)
		require.NoError(t, err)
		defer doc.Dispose()
		header, err := doc.Header()
		require.NoError(t, err)
		assert.Equal(t, kid, header.KeyID())
	}

	raw1, err := s.Sign(map[string]any{})
	require.NoError(t, err)
	expectKid(raw1, "k1")

	raw2, err := s.Sign(map[string]any{})
	require.NoError(t, err)
	expectKid(raw2, "k2")

	raw3, err := s.Sign(map[string]any{})
	require.NoError(t, err)
	expectKid(raw3, "k1")
}

func TestSigner_DisableDefaults(t *testing.T) {
	key := hmacKey(t, "k1")
	s := jwt.NewSigner(key).WithIssuedAt(false).WithJTI(false)

	raw, err := s.Sign(map[string]any{"sub": "mia"})
	require.NoError(t, err)

	policy := jwt.NewPolicyBuilder().WithKeySet(jwk.Singleton(key)).Build()
	doc, err := jwt.Parse(raw, policy)
	require.NoError(t, err)
	defer doc.Dispose()

	payload, err := doc.Payload()
	require.NoError(t, err)
	assert.True(t, payload.IssuedAt().IsZero())
	assert.Empty(t, payload.ID())
}

func TestSigner_RejectsNonObjectClaims(t *testing.T) {
	key := hmacKey(t, "k1")
	s := jwt.NewSigner(key)
	_, err := s.Sign([]int{1, 2, 3})
	require.Error(t, err)
	var jerr *jwt.Error
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jwt.InvalidClaim, jerr.Kind)
}
