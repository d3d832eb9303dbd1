// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jwk provides functionality to parse, manage, and marshal JSON Web
// Keys (JWK) and JSON Web Key Sets (JWKS), as defined in RFC 7517.
//
// Unlike a verification-only JWK library, a Key here can also back JWE key
// management: a Key's Signer, Verifier, KeyWrapper, KeyUnwrapper,
// AuthenticatedEncryptor and AuthenticatedDecryptor methods report ok=false
// for an operation the key cannot support, rather than panicking or
// returning an error. KeyAgreer is probed with a type assertion.
package jwk

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/deep-rent/jose/jose/jwe"
)

// Verifier checks a signature against a message.
type Verifier interface {
	Verify(msg, sig []byte) bool
}

// Signer produces a signature over a message.
type Signer interface {
	Sign(msg []byte) ([]byte, error)
}

// KeyAgreer participates in Diffie-Hellman key agreement for ECDH-ES. Only
// EC and OKP (X25519/X448) keys implement it.
type KeyAgreer interface {
	// Curve returns the JWA/JWK curve name ("P-256", "P-384", "P-521",
	// "X25519", "X448").
	Curve() string
	// PublicBytes returns the raw public key bytes: the concatenation of
	// the fixed-width X and Y coordinates for EC curves, or the raw
	// public value for OKP curves.
	PublicBytes() []byte
	// GenerateEphemeral creates a fresh, private-capable key pair on the
	// same curve, used by the writer to produce the "epk" header member.
	GenerateEphemeral() (KeyAgreer, error)
	// AgreeWithPeer computes the ECDH shared secret against a peer's raw
	// public key bytes. It requires the receiver to hold private material.
	AgreeWithPeer(peerPublicBytes []byte) ([]byte, error)
}

// Hint is the minimum information needed to look a Key up in a Set: the
// JWS/JWE header fields used to select one.
type Hint interface {
	Algorithm() string
	KeyID() string
	Thumbprint() string
}

// Key represents a JSON Web Key. Its capability methods return ok=false
// when the concrete variant does not support that operation, rather than
// panicking or returning an error.
type Key interface {
	Hint

	// Use returns "sig", "enc", or "" if unset.
	Use() string
	// Material returns the raw cryptographic material for encoding
	// purposes. Asymmetric keys expose only their public material; a
	// symmetric key returns its secret.
	Material() any

	Verifier() (Verifier, bool)
	Signer() (Signer, bool)
	KeyWrapper(alg string) (jwe.KeyWrapper, bool)
	KeyUnwrapper(alg string) (jwe.KeyUnwrapper, bool)
	AuthenticatedEncryptor(enc string) (jwe.AuthenticatedEncryptor, bool)
	AuthenticatedDecryptor(enc string) (jwe.AuthenticatedDecryptor, bool)
}

// ErrIneligibleKey indicates that a key may be syntactically valid but its
// "use"/"key_ops" parameters exclude it from the operation being attempted.
var ErrIneligibleKey = errors.New("jwk: key is ineligible for the requested operation")

// Set stores an immutable collection of Keys, typically parsed from a JWKS.
type Set interface {
	Keys() iter.Seq[Key]
	Len() int
	// Find returns every key that could plausibly serve hint: the keys
	// with the hint's "kid" if it has one, otherwise the keys with its
	// thumbprint. If the hint names neither, or no key matches the one it
	// names, every key whose algorithm matches is returned. The "use"
	// parameter is not consulted. The reader pipeline tries returned keys
	// in order.
	Find(hint Hint) []Key
}

func newSet(n int) *set {
	return &set{
		keys: make([]Key, 0, n),
		kid:  make(map[string][]int, n),
		x5t:  make(map[string][]int, n),
	}
}

type set struct {
	keys []Key
	kid  map[string][]int
	x5t  map[string][]int
}

func (s *set) Keys() iter.Seq[Key] { return slices.Values(s.keys) }
func (s *set) Len() int            { return len(s.keys) }

func (s *set) add(k Key) {
	idx := len(s.keys)
	s.keys = append(s.keys, k)
	if kid := k.KeyID(); kid != "" {
		s.kid[kid] = append(s.kid[kid], idx)
	}
	if x5t := k.Thumbprint(); x5t != "" {
		s.x5t[x5t] = append(s.x5t[x5t], idx)
	}
}

func (s *set) Find(hint Hint) []Key {
	if hint == nil {
		return nil
	}
	var indices []int
	switch {
	case hint.KeyID() != "":
		indices = s.kid[hint.KeyID()]
	case hint.Thumbprint() != "":
		indices = s.x5t[hint.Thumbprint()]
	}
	var out []Key
	for _, i := range indices {
		k := s.keys[i]
		if hint.Algorithm() == "" || k.Algorithm() == hint.Algorithm() {
			out = append(out, k)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, k := range s.keys {
		if hint.Algorithm() == "" || k.Algorithm() == hint.Algorithm() {
			out = append(out, k)
		}
	}
	return out
}

type emptySet struct{}

func (emptySet) Keys() iter.Seq[Key] { return func(func(Key) bool) {} }
func (emptySet) Len() int            { return 0 }
func (emptySet) Find(Hint) []Key     { return nil }

// Empty is a Set containing no keys.
var Empty Set = emptySet{}

type singletonSet struct{ key Key }

func (s *singletonSet) Keys() iter.Seq[Key] {
	return func(f func(Key) bool) { f(s.key) }
}
func (s *singletonSet) Len() int { return 1 }
func (s *singletonSet) Find(hint Hint) []Key {
	if hint.Algorithm() != "" && s.key.Algorithm() != hint.Algorithm() {
		return nil
	}
	return []Key{s.key}
}

// Singleton creates a Set that contains only the provided Key.
func Singleton(key Key) Set {
	return &singletonSet{key: key}
}

// raw holds the JWK parameters, including key material, exactly as they
// appear on the wire.
type raw struct {
	Kty string   `json:"kty"`
	Alg string   `json:"alg,omitempty"`
	Use string   `json:"use,omitempty"`
	Ops []string `json:"key_ops,omitempty"`
	Kid string   `json:"kid,omitempty"`
	X5t string   `json:"x5t#S256,omitempty"`
	K   string   `json:"k,omitempty"`
	N   string   `json:"n,omitempty"`
	E   string   `json:"e,omitempty"`
	Crv string   `json:"crv,omitempty"`
	X   string   `json:"x,omitempty"`
	Y   string   `json:"y,omitempty"`
}

// Parse parses a single Key from JSON. "kty" is mandatory; "alg" is
// mandatory for symmetric and RSA keys (RS/PS/HS families are otherwise
// ambiguous), but optional for EC keys used purely for ECDH-ES agreement.
func Parse(in []byte) (Key, error) {
	var r raw
	if err := json.Unmarshal(in, &r); err != nil {
		return nil, fmt.Errorf("jwk: invalid json: %w", err)
	}
	if r.Kty == "" {
		return nil, errors.New("jwk: undefined key type")
	}
	if (r.Kty == "oct" || r.Kty == "RSA") && r.Alg == "" {
		return nil, fmt.Errorf("jwk: %s key without %q", r.Kty, "alg")
	}
	switch r.Kty {
	case "oct":
		return decodeSymmetric(&r)
	case "RSA":
		return decodeRSAPublic(&r)
	case "EC":
		return decodeECPublic(&r)
	case "OKP":
		return decodeOKPPublic(&r)
	default:
		return nil, fmt.Errorf("jwk: unsupported key type %q", r.Kty)
	}
}

// ParseSet parses a Set from a JWKS JSON document. Keys that fail to parse
// are skipped with their error joined into the returned error; a
// completely malformed top-level document is a fatal error.
func ParseSet(in []byte) (Set, error) {
	var doc struct {
		Keys []jsontext.Value `json:"keys"`
	}
	if err := json.Unmarshal(in, &doc); err != nil {
		return Empty, fmt.Errorf("jwk: invalid jwks: %w", err)
	}
	if len(doc.Keys) == 0 {
		return Empty, nil
	}
	s := newSet(len(doc.Keys))
	var errs []error
	for i, v := range doc.Keys {
		k, err := Parse(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("key at index %d: %w", i, err))
			continue
		}
		s.add(k)
	}
	return s, errors.Join(errs...)
}

// Write marshals a single Key into its JWK JSON representation.
func Write(k Key) ([]byte, error) {
	r, err := toRaw(k)
	if err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

// WriteSet marshals a Set into a JWKS document.
func WriteSet(s Set) ([]byte, error) {
	keys := make([]raw, 0, s.Len())
	for k := range s.Keys() {
		r, err := toRaw(k)
		if err != nil {
			return nil, fmt.Errorf("jwk: encode key %q: %w", k.KeyID(), err)
		}
		keys = append(keys, *r)
	}
	return json.Marshal(struct {
		Keys []raw `json:"keys"`
	}{Keys: keys})
}

func toRaw(k Key) (*raw, error) {
	r := &raw{
		Alg: k.Algorithm(),
		Kid: k.KeyID(),
		X5t: k.Thumbprint(),
		Use: k.Use(),
	}
	if err := encodeMaterial(k.Material(), r); err != nil {
		return nil, err
	}
	return r, nil
}

func b64(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

func unb64(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }

// thumbprintRFC7638 computes the RFC 7638 JWK thumbprint: SHA-256 over the
// lexicographically-sorted, whitespace-free JSON object of the key's
// required members.
func thumbprintRFC7638(members map[string]string) string {
	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	buf := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '"')
		buf = append(buf, k...)
		buf = append(buf, `":"`...)
		buf = append(buf, members[k]...)
		buf = append(buf, '"')
	}
	buf = append(buf, '}')

	sum := sha256.Sum256(buf)
	return b64(sum[:])
}
