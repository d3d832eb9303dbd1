package jwt

import (
	"encoding/json/v2"
	"errors"
	"time"
)

// audience handles the "aud" claim's dual string/array wire representation.
type audience []string

func (a *audience) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = audience{s}
		return nil
	}
	var m []string
	if err := json.Unmarshal(b, &m); err == nil {
		*a = audience(m)
		return nil
	}
	return errors.New("jwt: aud must be a string or an array of strings")
}

func (a audience) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// Reserved holds the standard registered claims for a JWT. Embed it in a
// custom claims struct to inherit the standard field names and JSON tags;
// pass the resulting struct type to Decode to populate it from a parsed
// JwtDocument.
type Reserved struct {
	Jti string    `json:"jti,omitempty"`            // JWT ID
	Sub string    `json:"sub,omitempty"`            // Subject
	Iss string    `json:"iss,omitempty"`            // Issuer
	Aud audience  `json:"aud,omitempty"`            // Audience
	Iat time.Time `json:"iat,omitzero,format:unix"` // Issued At
	Exp time.Time `json:"exp,omitzero,format:unix"` // Expires At
	Nbf time.Time `json:"nbf,omitzero,format:unix"` // Not Before
}

// Decode unmarshals a parsed JwtDocument's payload into a caller-defined
// claims struct using encoding/json/v2. Parse (via the supplied Policy)
// already validated the standard temporal and issuer/audience claims by
// the time a JwtDocument exists; Decode only extracts them, along with any
// application-defined claims, into T.
func Decode[T any](doc *JwtDocument) (T, error) {
	var claims T
	payload, err := doc.Payload()
	if err != nil {
		return claims, err
	}
	if err := json.Unmarshal(payload.Raw(), &claims); err != nil {
		return claims, newError(InvalidClaim, "", err)
	}
	return claims, nil
}
