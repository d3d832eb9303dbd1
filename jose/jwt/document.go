package jwt

import (
	"fmt"
	"time"

	"github.com/deep-rent/jose/internal/jsonx"
)

// JwtHeader exposes the parsed JOSE header of a token. It satisfies
// jwk.Hint so a JwtHeader can be passed directly to jwk.Set.Find.
type JwtHeader struct {
	doc     *jsonx.Doc
	encoded []byte // the base64url segment exactly as it appeared on the wire; JWE AAD
}

// parseHeader decodes and indexes a header segment. encoded is the
// original base64url segment bytes (used verbatim as JWE AAD); decoded is
// its base64url-decoded JSON.
func parseHeader(encoded, decoded []byte) (JwtHeader, error) {
	doc, err := jsonx.Parse(decoded)
	if err != nil {
		return JwtHeader{}, newError(MalformedToken, "", err)
	}
	if doc.Node(doc.Root()).Kind != jsonx.Object {
		return JwtHeader{}, newError(InvalidHeader, "", fmt.Errorf("header is not a JSON object"))
	}
	return JwtHeader{doc: doc, encoded: encoded}, nil
}

func (h JwtHeader) find(key string) (int, bool) {
	i := h.doc.Find(h.doc.Root(), key)
	return i, i != -1
}

func (h JwtHeader) str(key string) string {
	i, ok := h.find(key)
	if !ok {
		return ""
	}
	s, err := h.doc.String(i)
	if err != nil {
		return ""
	}
	return s
}

// Algorithm returns the "alg" header member.
func (h JwtHeader) Algorithm() string { return h.str("alg") }

// Encryption returns the "enc" header member, empty for a JWS.
func (h JwtHeader) Encryption() string { return h.str("enc") }

// Compression returns the "zip" header member, empty if absent.
func (h JwtHeader) Compression() string { return h.str("zip") }

// Type returns the "typ" header member.
func (h JwtHeader) Type() string { return h.str("typ") }

// ContentType returns the "cty" header member.
func (h JwtHeader) ContentType() string { return h.str("cty") }

// KeyID returns the "kid" header member.
func (h JwtHeader) KeyID() string { return h.str("kid") }

// Thumbprint returns the "x5t#S256" header member.
func (h JwtHeader) Thumbprint() string { return h.str("x5t#S256") }

// PartyUInfo returns the decoded "apu" header member, or nil if absent.
func (h JwtHeader) PartyUInfo() []byte { return h.b64("apu") }

// PartyVInfo returns the decoded "apv" header member, or nil if absent.
func (h JwtHeader) PartyVInfo() []byte { return h.b64("apv") }

// SaltInput returns the decoded "p2s" header member, or nil if absent.
func (h JwtHeader) SaltInput() []byte { return h.b64("p2s") }

// IV returns the decoded "iv" header member (A*GCMKW), or nil if absent.
func (h JwtHeader) IV() []byte { return h.b64("iv") }

// Tag returns the decoded "tag" header member (A*GCMKW), or nil if absent.
func (h JwtHeader) Tag() []byte { return h.b64("tag") }

// Iterations returns the "p2c" header member, or 0 if absent.
func (h JwtHeader) Iterations() int {
	i, ok := h.find("p2c")
	if !ok {
		return 0
	}
	n, err := h.doc.Int64(i)
	if err != nil {
		return 0
	}
	return int(n)
}

func (h JwtHeader) b64(key string) []byte {
	i, ok := h.find(key)
	if !ok {
		return nil
	}
	s, err := h.doc.String(i)
	if err != nil {
		return nil
	}
	b, err := decode([]byte(s))
	if err != nil {
		return nil
	}
	return b
}

// EphemeralPublicKey returns the raw "epk" member's JSON bytes, or nil if
// absent. The caller (the reader pipeline) parses it with jwk.Parse.
func (h JwtHeader) EphemeralPublicKey() []byte {
	i, ok := h.find("epk")
	if !ok {
		return nil
	}
	return h.doc.Raw(i)
}

// Critical returns the "crit" header member as a list of member names.
func (h JwtHeader) Critical() []string {
	i, ok := h.find("crit")
	if !ok {
		return nil
	}
	if h.doc.Node(i).Kind != jsonx.Array {
		return nil
	}
	var out []string
	h.doc.Elements(i, func(v int) bool {
		if s, err := h.doc.String(v); err == nil {
			out = append(out, s)
		}
		return true
	})
	return out
}

// Get returns the raw JSON bytes of an arbitrary header member, or nil if
// absent.
func (h JwtHeader) Get(name string) ([]byte, bool) {
	i, ok := h.find(name)
	if !ok {
		return nil, false
	}
	return h.doc.Raw(i), true
}

// EncodedSegment returns the base64url header segment exactly as it
// appeared on the wire, used as JWE Additional Authenticated Data.
func (h JwtHeader) EncodedSegment() []byte { return h.encoded }

// JwtElement is a lightweight handle into a JwtPayload's index table. It is
// valid only while the owning JwtDocument has not been disposed.
type JwtElement struct {
	doc   *jsonx.Doc
	index int
}

// Valid reports whether the element refers to an existing node.
func (e JwtElement) Valid() bool { return e.doc != nil && e.index >= 0 }

// String returns the unescaped string value of the element.
func (e JwtElement) String() (string, error) {
	if !e.Valid() {
		return "", fmt.Errorf("jwt: element is not valid")
	}
	return e.doc.String(e.index)
}

// Int64 returns the integer value of the element.
func (e JwtElement) Int64() (int64, error) {
	if !e.Valid() {
		return 0, fmt.Errorf("jwt: element is not valid")
	}
	return e.doc.Int64(e.index)
}

// Bool returns the boolean value of the element.
func (e JwtElement) Bool() bool {
	if !e.Valid() {
		return false
	}
	return e.doc.Bool(e.index)
}

// Raw returns the element's raw wire-form JSON bytes.
func (e JwtElement) Raw() []byte {
	if !e.Valid() {
		return nil
	}
	return e.doc.Raw(e.index)
}

// JwtPayload exposes the parsed claim set of a token.
type JwtPayload struct {
	doc *jsonx.Doc
}

// Get returns a handle to the member named key, or an invalid element if
// absent.
func (p JwtPayload) Get(key string) JwtElement {
	if p.doc == nil {
		return JwtElement{index: -1}
	}
	i := p.doc.Find(p.doc.Root(), key)
	return JwtElement{doc: p.doc, index: i}
}

// Members iterates the payload's top-level (key, element) pairs.
func (p JwtPayload) Members(yield func(key string, value JwtElement) bool) {
	if p.doc == nil {
		return
	}
	p.doc.Members(p.doc.Root(), func(key string, v int) bool {
		return yield(key, JwtElement{doc: p.doc, index: v})
	})
}

// Raw returns the exact JSON bytes of the payload.
func (p JwtPayload) Raw() []byte {
	if p.doc == nil {
		return nil
	}
	return p.doc.Raw(p.doc.Root())
}

func (p JwtPayload) strClaim(key string) string {
	e := p.Get(key)
	if !e.Valid() {
		return ""
	}
	s, _ := e.String()
	return s
}

func (p JwtPayload) timeClaim(key string) time.Time {
	e := p.Get(key)
	if !e.Valid() {
		return time.Time{}
	}
	n, err := e.Int64()
	if err != nil {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}

// ID returns the "jti" claim.
func (p JwtPayload) ID() string { return p.strClaim("jti") }

// Subject returns the "sub" claim.
func (p JwtPayload) Subject() string { return p.strClaim("sub") }

// Issuer returns the "iss" claim.
func (p JwtPayload) Issuer() string { return p.strClaim("iss") }

// Audience returns the "aud" claim, which may be encoded as a single string
// or an array of strings on the wire.
func (p JwtPayload) Audience() []string {
	e := p.Get("aud")
	if !e.Valid() {
		return nil
	}
	if s, err := e.String(); err == nil {
		return []string{s}
	}
	var out []string
	p.doc.Elements(e.index, func(v int) bool {
		if s, err := p.doc.String(v); err == nil {
			out = append(out, s)
		}
		return true
	})
	return out
}

// IssuedAt returns the "iat" claim.
func (p JwtPayload) IssuedAt() time.Time { return p.timeClaim("iat") }

// ExpiresAt returns the "exp" claim.
func (p JwtPayload) ExpiresAt() time.Time { return p.timeClaim("exp") }

// NotBefore returns the "nbf" claim.
func (p JwtPayload) NotBefore() time.Time { return p.timeClaim("nbf") }

// JwtDocument is a parsed, policy-validated token. It owns a rented buffer
// holding the payload's plaintext bytes (decrypted and decompressed, for a
// JWE) and must be disposed exactly once to return that buffer to the pool.
type JwtDocument struct {
	header  JwtHeader
	payload JwtPayload
	raw     []byte
	handle  releaser
	nested  *JwtDocument
	valid   bool
}

// releaser abstracts internal/buffer.Handle so tests can construct a
// JwtDocument without renting from the shared pool.
type releaser interface{ Release() }

// Header returns the token's header.
func (d *JwtDocument) Header() (JwtHeader, error) {
	if !d.valid {
		return JwtHeader{}, newError(InstanceInvalidated, "", nil)
	}
	return d.header, nil
}

// Payload returns the token's payload claims.
func (d *JwtDocument) Payload() (JwtPayload, error) {
	if !d.valid {
		return JwtPayload{}, newError(InstanceInvalidated, "", nil)
	}
	return d.payload, nil
}

// Nested returns the inner JwtDocument when the outer token was a JWE
// wrapping a JWS/JWE with cty=JWT, or nil otherwise.
func (d *JwtDocument) Nested() *JwtDocument { return d.nested }

// RawPayload returns the decrypted/decompressed plaintext of a token whose
// header declares cty=JWT but whose policy set IgnoreNestedToken, so the
// automatic recursive parse was skipped. Nil for a document whose payload
// was parsed as claims instead.
func (d *JwtDocument) RawPayload() ([]byte, error) {
	if !d.valid {
		return nil, newError(InstanceInvalidated, "", nil)
	}
	return d.raw, nil
}

// Dispose releases the document's rented buffer. Safe to call more than
// once and safe to call on a nil document.
func (d *JwtDocument) Dispose() {
	if d == nil || !d.valid {
		return
	}
	d.valid = false
	if d.handle != nil {
		d.handle.Release()
	}
	if d.nested != nil {
		d.nested.Dispose()
	}
}
