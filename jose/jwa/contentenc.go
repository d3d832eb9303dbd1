package jwa

import "crypto"

// ContentEncryption identifies a JWE "enc" content encryption algorithm.
type ContentEncryption struct {
	Name       string
	KeyBits    int // total CEK size in bits
	GCM        bool
	CBCHMAC    bool
	MACKeyBits int      // CBC-HMAC only: size of the MAC half of the CEK
	EncKeyBits int      // CBC-HMAC only: size of the encryption half of the CEK
	Hash       crypto.Hash // CBC-HMAC only: hash backing the HMAC
	TagBits    int
}

// Content encryption algorithm identifiers, RFC 7518 §5.
const (
	A128CBCHS256 = "A128CBC-HS256"
	A192CBCHS384 = "A192CBC-HS384"
	A256CBCHS512 = "A256CBC-HS512"
	A128GCM      = "A128GCM"
	A192GCM      = "A192GCM"
	A256GCM      = "A256GCM"
)

var contentEncryptionRegistry = map[string]ContentEncryption{
	A128CBCHS256: {Name: A128CBCHS256, KeyBits: 256, CBCHMAC: true, MACKeyBits: 128, EncKeyBits: 128, Hash: crypto.SHA256, TagBits: 128},
	A192CBCHS384: {Name: A192CBCHS384, KeyBits: 384, CBCHMAC: true, MACKeyBits: 192, EncKeyBits: 192, Hash: crypto.SHA384, TagBits: 192},
	A256CBCHS512: {Name: A256CBCHS512, KeyBits: 512, CBCHMAC: true, MACKeyBits: 256, EncKeyBits: 256, Hash: crypto.SHA512, TagBits: 256},
	A128GCM:      {Name: A128GCM, KeyBits: 128, GCM: true, TagBits: 128},
	A192GCM:      {Name: A192GCM, KeyBits: 192, GCM: true, TagBits: 128},
	A256GCM:      {Name: A256GCM, KeyBits: 256, GCM: true, TagBits: 128},
}

// LookupContentEncryption returns the metadata for a registered "enc"
// content encryption algorithm name, or false if the name is unregistered.
func LookupContentEncryption(name string) (ContentEncryption, bool) {
	ce, ok := contentEncryptionRegistry[name]
	return ce, ok
}
