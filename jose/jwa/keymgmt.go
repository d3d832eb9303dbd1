package jwa

// KeyManagement identifies a JWE "alg" key management algorithm.
type KeyManagement struct {
	Name        string
	KeyBits     int // required key-encryption-key size in bits, 0 if variable
	WrapsCEK    bool
	UsesKDF     bool // ECDH-ES family
	UsesPBKDF2  bool // PBES2 family
	AESKWWrap   bool // final stage is an AES key wrap
	GCMKW       bool
	Category    string // "dir", "kw", "gcmkw", "rsa", "ecdh", "pbes2"
}

// Key management algorithm identifiers, RFC 7518 §4.
const (
	Dir              = "dir"
	A128KW           = "A128KW"
	A192KW           = "A192KW"
	A256KW           = "A256KW"
	A128GCMKW        = "A128GCMKW"
	A192GCMKW        = "A192GCMKW"
	A256GCMKW        = "A256GCMKW"
	RSA1_5           = "RSA1_5"
	RSAOAEP          = "RSA-OAEP"
	RSAOAEP256       = "RSA-OAEP-256"
	RSAOAEP384       = "RSA-OAEP-384"
	RSAOAEP512       = "RSA-OAEP-512"
	ECDHES           = "ECDH-ES"
	ECDHESA128KW     = "ECDH-ES+A128KW"
	ECDHESA192KW     = "ECDH-ES+A192KW"
	ECDHESA256KW     = "ECDH-ES+A256KW"
	PBES2HS256A128KW = "PBES2-HS256+A128KW"
	PBES2HS384A192KW = "PBES2-HS384+A192KW"
	PBES2HS512A256KW = "PBES2-HS512+A256KW"
)

var keyManagementRegistry = map[string]KeyManagement{
	Dir:              {Name: Dir, Category: "dir"},
	A128KW:           {Name: A128KW, KeyBits: 128, WrapsCEK: true, AESKWWrap: true, Category: "kw"},
	A192KW:           {Name: A192KW, KeyBits: 192, WrapsCEK: true, AESKWWrap: true, Category: "kw"},
	A256KW:           {Name: A256KW, KeyBits: 256, WrapsCEK: true, AESKWWrap: true, Category: "kw"},
	A128GCMKW:        {Name: A128GCMKW, KeyBits: 128, WrapsCEK: true, GCMKW: true, Category: "gcmkw"},
	A192GCMKW:        {Name: A192GCMKW, KeyBits: 192, WrapsCEK: true, GCMKW: true, Category: "gcmkw"},
	A256GCMKW:        {Name: A256GCMKW, KeyBits: 256, WrapsCEK: true, GCMKW: true, Category: "gcmkw"},
	RSA1_5:           {Name: RSA1_5, WrapsCEK: true, Category: "rsa"},
	RSAOAEP:          {Name: RSAOAEP, WrapsCEK: true, Category: "rsa"},
	RSAOAEP256:       {Name: RSAOAEP256, WrapsCEK: true, Category: "rsa"},
	RSAOAEP384:       {Name: RSAOAEP384, WrapsCEK: true, Category: "rsa"},
	RSAOAEP512:       {Name: RSAOAEP512, WrapsCEK: true, Category: "rsa"},
	ECDHES:           {Name: ECDHES, UsesKDF: true, Category: "ecdh"},
	ECDHESA128KW:     {Name: ECDHESA128KW, KeyBits: 128, WrapsCEK: true, UsesKDF: true, AESKWWrap: true, Category: "ecdh"},
	ECDHESA192KW:     {Name: ECDHESA192KW, KeyBits: 192, WrapsCEK: true, UsesKDF: true, AESKWWrap: true, Category: "ecdh"},
	ECDHESA256KW:     {Name: ECDHESA256KW, KeyBits: 256, WrapsCEK: true, UsesKDF: true, AESKWWrap: true, Category: "ecdh"},
	PBES2HS256A128KW: {Name: PBES2HS256A128KW, KeyBits: 128, WrapsCEK: true, UsesPBKDF2: true, AESKWWrap: true, Category: "pbes2"},
	PBES2HS384A192KW: {Name: PBES2HS384A192KW, KeyBits: 192, WrapsCEK: true, UsesPBKDF2: true, AESKWWrap: true, Category: "pbes2"},
	PBES2HS512A256KW: {Name: PBES2HS512A256KW, KeyBits: 256, WrapsCEK: true, UsesPBKDF2: true, AESKWWrap: true, Category: "pbes2"},
}

// LookupKeyManagement returns the metadata for a registered "alg" key
// management algorithm name, or false if the name is unregistered.
func LookupKeyManagement(name string) (KeyManagement, bool) {
	km, ok := keyManagementRegistry[name]
	return km, ok
}
