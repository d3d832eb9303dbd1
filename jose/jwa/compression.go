package jwa

// Compression algorithm identifiers, RFC 7518 §7.3.
const (
	// DEF is raw DEFLATE compression (RFC 1951) applied to the plaintext
	// before JWE content encryption.
	DEF = "DEF"
)

// IsRegisteredCompression reports whether name is a recognized "zip" value.
func IsRegisteredCompression(name string) bool {
	return name == DEF
}
