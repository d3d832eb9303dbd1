package jwt

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"time"

	"github.com/deep-rent/jose/internal/rotator"
	"github.com/deep-rent/jose/jose/jwk"
	"github.com/deep-rent/jose/log"
	"github.com/deep-rent/jose/uuid"
)

// Signer is a configured, reusable JWS creator. It rotates signing keys
// round-robin across successive Sign calls and stamps standard claims
// ("iat", "jti", and optionally "iss"/"aud"/"exp") onto the claim set it is
// given before signing.
type Signer struct {
	rot    *rotator.Rotator[jwk.Key]
	typ    string
	iat    bool
	jti    bool
	iss    string
	aud    []string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSigner creates a Signer that rotates over the given signing keys. At
// least one key must be provided; otherwise it panics. Further
// configuration can be applied using the With... setters.
func NewSigner(keys ...jwk.Key) *Signer {
	return &Signer{
		rot:    rotator.New(keys),
		typ:    "JWT",
		iat:    true,
		jti:    true,
		now:    time.Now,
		logger: log.New(),
	}
}

// WithType sets the "typ" header member stamped on every token. Defaults
// to "JWT".
//
// This method is not thread-safe and should be called only during setup.
func (s *Signer) WithType(typ string) *Signer {
	s.typ = typ
	return s
}

// WithIssuedAt enables or disables automatic stamping of the "iat" claim
// with the signer's current time. Enabled by default.
//
// This method is not thread-safe and should be called only during setup.
func (s *Signer) WithIssuedAt(use bool) *Signer {
	s.iat = use
	return s
}

// WithJTI enables or disables automatic stamping of a fresh "jti" claim
// (a UUIDv7 string). Enabled by default.
//
// This method is not thread-safe and should be called only during setup.
func (s *Signer) WithJTI(use bool) *Signer {
	s.jti = use
	return s
}

// WithIssuer sets the "iss" claim stamped on every token, overwriting any
// value the caller's claims already carry. Unset by default.
//
// This method is not thread-safe and should be called only during setup.
func (s *Signer) WithIssuer(iss string) *Signer {
	s.iss = iss
	return s
}

// WithAudience sets the "aud" claim stamped on every token, overwriting
// any value the caller's claims already carry. Unset by default.
//
// This method is not thread-safe and should be called only during setup.
func (s *Signer) WithAudience(aud ...string) *Signer {
	s.aud = aud
	return s
}

// WithLifetime sets the duration used to compute the "exp" claim from the
// signer's current time. Zero (the default) leaves "exp" untouched.
//
// This method is not thread-safe and should be called only during setup.
func (s *Signer) WithLifetime(d time.Duration) *Signer {
	if d > 0 {
		s.ttl = d
	}
	return s
}

// WithClock overrides the time source used to stamp "iat" and compute
// "exp". Defaults to time.Now.
//
// This method is not thread-safe and should be called only during setup.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	if now != nil {
		s.now = now
	}
	return s
}

// WithLogger sets the logger the signer emits a Debug-level trace event to
// on every key rotation. Defaults to log.New(), which logs at Info level;
// raise the level to see the trace events.
//
// This method is not thread-safe and should be called only during setup.
func (s *Signer) WithLogger(l *slog.Logger) *Signer {
	if l != nil {
		s.logger = l
	}
	return s
}

// Sign marshals claims to a JSON object, stamps the signer's configured
// standard claims onto it, and signs the result with the next key in the
// rotation. claims must marshal to a JSON object.
func (s *Signer) Sign(claims any) ([]byte, error) {
	raw, err := json.Marshal(claims)
	if err != nil {
		return nil, newError(InvalidClaim, "", fmt.Errorf("failed to marshal claims: %w", err))
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, newError(InvalidClaim, "", fmt.Errorf("claims must marshal to a JSON object: %w", err))
	}

	now := s.now()
	if s.iat {
		fields["iat"] = now.Unix()
	}
	if s.jti {
		fields["jti"] = uuid.NewJTI()
	}
	if s.iss != "" {
		fields["iss"] = s.iss
	}
	if len(s.aud) > 0 {
		fields["aud"] = s.aud
	}
	if s.ttl > 0 {
		fields["exp"] = now.Add(s.ttl).Unix()
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, newError(InvalidClaim, "", fmt.Errorf("failed to marshal claims: %w", err))
	}

	key := s.rot.Next()
	s.logger.Debug("Rotated signing key", "kid", key.KeyID())

	return Write(&JwsDescriptor{
		Type:       s.typ,
		SigningKey: key,
		Payload:    payload,
	})
}
