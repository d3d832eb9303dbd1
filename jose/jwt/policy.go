package jwt

import (
	"log/slog"
	"time"

	"github.com/deep-rent/jose/clock"
	"github.com/deep-rent/jose/jose/jwk"
	"github.com/deep-rent/jose/log"
)

// KeyProvider resolves candidate keys for a token header. The module ships
// StaticProvider, which serves an in-memory jwk.Set, as the reference
// implementation; a caller
// wanting a live JWKS endpoint wires their own HTTP client into a
// KeyProvider and passes it to the Policy.
type KeyProvider interface {
	GetKeys(header JwtHeader) ([]jwk.Key, error)
}

// staticProvider adapts a jwk.Set to a KeyProvider.
type staticProvider struct{ set jwk.Set }

func (p staticProvider) GetKeys(header JwtHeader) ([]jwk.Key, error) {
	return p.set.Find(header), nil
}

// StaticProvider builds a KeyProvider backed by an in-memory jwk.Set.
func StaticProvider(set jwk.Set) KeyProvider { return staticProvider{set: set} }

// CriticalHeaderHandler validates the value of a "crit" header member the
// caller's policy declares it understands. It returns an error if the
// member's value is unacceptable.
type CriticalHeaderHandler func(header JwtHeader) error

// Policy bundles every rule the reader pipeline applies to a token. It is
// immutable after Build and safe for concurrent use.
type Policy struct {
	providers         []KeyProvider
	requireExp        bool
	requireNbf        bool
	leeway            time.Duration
	issuers           []string
	audiences         []string
	critical          map[string]CriticalHeaderHandler
	maxTokenSize      int
	maxDecompressed   int
	ignoreNestedToken bool
	headerCacheOff    bool
	allowUnsecured    bool
	clock             clock.Clock
	cache             *headerCache
	logger            *slog.Logger
}

const (
	defaultMaxTokenSize    = 64 * 1024
	defaultMaxDecompressed = 1 << 20
)

// PolicyBuilder assembles a Policy. It is not safe for concurrent use;
// build it during setup and share the resulting *Policy across goroutines.
type PolicyBuilder struct {
	p *Policy
}

// NewPolicyBuilder starts a PolicyBuilder with the module's defaults: no
// key providers, no lifetime/issuer/audience checks, a 64 KiB token size
// cap, a 1 MiB decompression cap, the system clock, and alg=none rejected.
func NewPolicyBuilder() *PolicyBuilder {
	return &PolicyBuilder{p: &Policy{
		critical:        make(map[string]CriticalHeaderHandler),
		maxTokenSize:    defaultMaxTokenSize,
		maxDecompressed: defaultMaxDecompressed,
		clock:           clock.SystemClock(),
		logger:          log.New(),
	}}
}

// WithKeyProviders appends key providers tried, in order, to resolve
// signature/decryption keys for a header.
func (b *PolicyBuilder) WithKeyProviders(providers ...KeyProvider) *PolicyBuilder {
	b.p.providers = append(b.p.providers, providers...)
	return b
}

// WithKeySet is shorthand for WithKeyProviders(StaticProvider(set)).
func (b *PolicyBuilder) WithKeySet(set jwk.Set) *PolicyBuilder {
	return b.WithKeyProviders(StaticProvider(set))
}

// RequireExpiration rejects tokens with no "exp" claim.
func (b *PolicyBuilder) RequireExpiration() *PolicyBuilder {
	b.p.requireExp = true
	return b
}

// RequireNotBefore rejects tokens with no "nbf" claim.
func (b *PolicyBuilder) RequireNotBefore() *PolicyBuilder {
	b.p.requireNbf = true
	return b
}

// WithLeeway sets a grace period applied to "exp"/"nbf" comparisons to
// tolerate clock skew between issuer and verifier.
func (b *PolicyBuilder) WithLeeway(d time.Duration) *PolicyBuilder {
	if d > 0 {
		b.p.leeway = d
	}
	return b
}

// WithIssuers restricts accepted tokens to one of the given "iss" values.
func (b *PolicyBuilder) WithIssuers(iss ...string) *PolicyBuilder {
	b.p.issuers = append(b.p.issuers, iss...)
	return b
}

// WithAudiences restricts accepted tokens to those whose "aud" claim
// contains at least one of the given values.
func (b *PolicyBuilder) WithAudiences(aud ...string) *PolicyBuilder {
	b.p.audiences = append(b.p.audiences, aud...)
	return b
}

// WithCriticalHeader registers a handler for a "crit" header member the
// caller understands. A "crit" member without a registered handler causes
// validation to fail with CriticalHeaderMissingHandler.
func (b *PolicyBuilder) WithCriticalHeader(name string, handler CriticalHeaderHandler) *PolicyBuilder {
	b.p.critical[name] = handler
	return b
}

// WithMaxTokenSize caps the size, in bytes, of the compact serialization
// this policy will parse.
func (b *PolicyBuilder) WithMaxTokenSize(n int) *PolicyBuilder {
	if n > 0 {
		b.p.maxTokenSize = n
	}
	return b
}

// WithMaxDecompressedSize caps the size, in bytes, a "zip=DEF" payload may
// inflate to, defending against decompression-bomb payloads.
func (b *PolicyBuilder) WithMaxDecompressedSize(n int) *PolicyBuilder {
	if n > 0 {
		b.p.maxDecompressed = n
	}
	return b
}

// IgnoreNestedToken disables automatic recursive parsing of a decrypted
// payload when the header declares cty=JWT; the caller receives the raw
// plaintext instead.
func (b *PolicyBuilder) IgnoreNestedToken() *PolicyBuilder {
	b.p.ignoreNestedToken = true
	return b
}

// DisableHeaderCache turns off the bounded header cache, forcing every
// Parse call to re-parse the header JSON.
func (b *PolicyBuilder) DisableHeaderCache() *PolicyBuilder {
	b.p.headerCacheOff = true
	return b
}

// AllowUnsecured opts into accepting alg=none tokens. Disabled by default:
// a writer may still produce such a token, but a reader never accepts one
// unless the caller explicitly asks for it here.
func (b *PolicyBuilder) AllowUnsecured() *PolicyBuilder {
	b.p.allowUnsecured = true
	return b
}

// WithClock overrides the time source used for lifetime validation.
// Defaults to clock.SystemClock.
func (b *PolicyBuilder) WithClock(c clock.Clock) *PolicyBuilder {
	if c != nil {
		b.p.clock = c
	}
	return b
}

// WithLogger sets the logger the reader pipeline emits Debug-level trace
// events to (header cache hits/misses, critical-header dispatch). Defaults
// to log.New(), which logs at Info level; raise the level to see the trace
// events.
func (b *PolicyBuilder) WithLogger(l *slog.Logger) *PolicyBuilder {
	if l != nil {
		b.p.logger = l
	}
	return b
}

// Build finalizes the Policy. The returned Policy is immutable; further
// calls to the builder do not affect it.
func (b *PolicyBuilder) Build() *Policy {
	p := *b.p
	p.critical = make(map[string]CriticalHeaderHandler, len(b.p.critical))
	for k, v := range b.p.critical {
		p.critical[k] = v
	}
	if !p.headerCacheOff {
		p.cache = newHeaderCache(defaultHeaderCacheSize)
	}
	return &p
}
