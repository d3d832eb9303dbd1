package jwt

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"slices"

	"github.com/deep-rent/jose/internal/jsonx"
	"github.com/deep-rent/jose/jose/jwa"
	"github.com/deep-rent/jose/jose/jwe"
	"github.com/deep-rent/jose/jose/jwk"
)

// Descriptor is the authoring counterpart of a JwtDocument: either a
// *JwsDescriptor or a *JweDescriptor, passed to Write.
type Descriptor interface{ isDescriptor() }

// JwsDescriptor describes a signed (or, when Algorithm is "none", unsecured)
// compact token to produce.
type JwsDescriptor struct {
	Header      map[string]any // extension header members
	Type        string         // "typ"
	ContentType string         // "cty"
	KeyID       string         // "kid"; defaults to SigningKey.KeyID()
	Algorithm   string         // "alg"; defaults to SigningKey.Algorithm()
	SigningKey  jwk.Key
	Payload     []byte // raw claim-set JSON
}

func (*JwsDescriptor) isDescriptor() {}

// JweDescriptor describes an encrypted compact token to produce. Payload
// is either a raw JSON []byte, or a nested *JwsDescriptor/*JweDescriptor
// whose own compact serialization becomes this token's plaintext (with
// "cty" defaulting to "JWT").
type JweDescriptor struct {
	Header        map[string]any
	Type          string
	ContentType   string
	KeyID         string
	Algorithm     string // key management "alg"
	Encryption    string // "enc"
	Compression   string // "" or "DEF"
	PartyUInfo    []byte // ECDH-ES "apu", optional
	PartyVInfo    []byte // ECDH-ES "apv", optional
	EncryptionKey jwk.Key
	Payload       any
}

func (*JweDescriptor) isDescriptor() {}

// rawJSON marks a header value as already-encoded JSON to be emitted
// verbatim, used for the nested "epk" JWK object.
type rawJSON []byte

// Write serializes descriptor into its compact-serialization form: three
// dot-separated segments for a JwsDescriptor, five for a JweDescriptor.
func Write(descriptor Descriptor) ([]byte, error) {
	switch d := descriptor.(type) {
	case *JwsDescriptor:
		return writeJWS(d)
	case *JweDescriptor:
		return writeJWE(d)
	default:
		return nil, newError(InvalidHeader, "", fmt.Errorf("jwt: unsupported descriptor type %T", descriptor))
	}
}

var headerOrder = []string{
	"alg", "enc", "zip", "cty", "typ", "kid",
	"epk", "apu", "apv", "p2s", "p2c", "iv", "tag", "crit",
}

// writeHeader emits a canonical JOSE header object: the recognized members
// present in fields, in a fixed order, followed by extra's members sorted
// by key for determinism.
func writeHeader(fields map[string]any, extra map[string]any) ([]byte, error) {
	w := jsonx.NewWriter(make([]byte, 0, 256))
	w.BeginObject()
	for _, k := range headerOrder {
		v, ok := fields[k]
		if !ok {
			continue
		}
		w.Key(k)
		if err := writeHeaderValue(w, v); err != nil {
			return nil, newError(InvalidHeader, k, err)
		}
	}
	extraKeys := make([]string, 0, len(extra))
	for k := range extra {
		extraKeys = append(extraKeys, k)
	}
	slices.Sort(extraKeys)
	for _, k := range extraKeys {
		w.Key(k)
		if err := writeHeaderValue(w, extra[k]); err != nil {
			return nil, newError(InvalidHeader, k, err)
		}
	}
	w.EndObject()
	return w.Bytes(), nil
}

func writeHeaderValue(w *jsonx.Writer, v any) error {
	switch val := v.(type) {
	case string:
		w.String(val)
	case int:
		w.Int64(int64(val))
	case int64:
		w.Int64(val)
	case bool:
		w.Bool(val)
	case []string:
		w.StringArray(val)
	case []byte:
		w.String(string(encode(val)))
	case rawJSON:
		w.Raw(val)
	default:
		return fmt.Errorf("jwt: unsupported header value type %T", v)
	}
	return nil
}

func randomCEK(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeJWS(d *JwsDescriptor) ([]byte, error) {
	if d.SigningKey == nil {
		return nil, newError(InvalidHeader, "", fmt.Errorf("jwt: a signing key is required"))
	}
	alg := d.Algorithm
	if alg == "" {
		alg = d.SigningKey.Algorithm()
	}
	if alg == "" {
		return nil, newError(InvalidHeader, "alg", fmt.Errorf("no algorithm given"))
	}

	fields := map[string]any{"alg": alg}
	if d.Type != "" {
		fields["typ"] = d.Type
	}
	if d.ContentType != "" {
		fields["cty"] = d.ContentType
	}
	if kid := firstNonEmpty(d.KeyID, d.SigningKey.KeyID()); kid != "" {
		fields["kid"] = kid
	}

	headerJSON, err := writeHeader(fields, d.Header)
	if err != nil {
		return nil, err
	}
	encHeader := encode(headerJSON)
	encPayload := encode(d.Payload)

	msg := make([]byte, 0, len(encHeader)+1+len(encPayload))
	msg = append(msg, encHeader...)
	msg = append(msg, dot)
	msg = append(msg, encPayload...)

	var sig []byte
	if alg != jwa.None {
		signer, ok := d.SigningKey.Signer()
		if !ok {
			return nil, newError(InvalidHeader, "alg", fmt.Errorf("signing key does not support %s", alg))
		}
		sig, err = signer.Sign(msg)
		if err != nil {
			return nil, newError(SignatureValidationFailed, "", err)
		}
	}

	encSig := encode(sig)
	out := make([]byte, 0, len(msg)+1+len(encSig))
	out = append(out, msg...)
	out = append(out, dot)
	out = append(out, encSig...)
	return out, nil
}

func writeJWE(d *JweDescriptor) ([]byte, error) {
	if d.EncryptionKey == nil {
		return nil, newError(InvalidHeader, "", fmt.Errorf("jwt: an encryption key is required"))
	}
	alg := d.Algorithm
	if alg == "" {
		return nil, newError(InvalidHeader, "alg", fmt.Errorf("no key management algorithm given"))
	}
	enc := d.Encryption
	if enc == "" {
		return nil, newError(MissingEncryptionAlgorithm, "enc", nil)
	}
	km, ok := jwa.LookupKeyManagement(alg)
	if !ok {
		return nil, newError(InvalidHeader, "alg", fmt.Errorf("unsupported key management algorithm %q", alg))
	}
	ce, ok := jwa.LookupContentEncryption(enc)
	if !ok {
		return nil, newError(InvalidHeader, "enc", fmt.Errorf("unsupported content encryption algorithm %q", enc))
	}

	fields := map[string]any{"alg": alg, "enc": enc}
	if d.Compression != "" {
		fields["zip"] = d.Compression
	}
	if d.Type != "" {
		fields["typ"] = d.Type
	}
	switch {
	case d.ContentType != "":
		fields["cty"] = d.ContentType
	case isNestedDescriptor(d.Payload):
		fields["cty"] = "JWT"
	}
	if kid := firstNonEmpty(d.KeyID, d.EncryptionKey.KeyID()); kid != "" {
		fields["kid"] = kid
	}

	cek, wrapParams, encryptedKey, err := prepareCEK(d.EncryptionKey, alg, km, ce, d)
	if err != nil {
		return nil, err
	}
	for k, v := range wrapParams {
		fields[k] = v
	}

	headerJSON, err := writeHeader(fields, d.Header)
	if err != nil {
		return nil, err
	}
	encHeader := encode(headerJSON)

	plaintext, err := payloadBytes(d.Payload)
	if err != nil {
		return nil, err
	}
	if d.Compression == "DEF" {
		plaintext, err = jwe.Compress(plaintext)
		if err != nil {
			return nil, newError(DecompressionFailed, "zip", err)
		}
	} else if d.Compression != "" {
		return nil, newError(InvalidHeader, "zip", fmt.Errorf("unsupported compression %q", d.Compression))
	}

	cipher := jwk.NewSymmetric(cek, "", "enc", "")
	encryptor, ok := cipher.AuthenticatedEncryptor(enc)
	if !ok {
		return nil, newError(InvalidHeader, "enc", fmt.Errorf("content encryption key size does not match %s", enc))
	}
	iv, ciphertext, tag, err := encryptor.Encrypt(cek, plaintext, encHeader)
	if err != nil {
		return nil, newError(DecryptionFailed, "", err)
	}

	return bytes.Join([][]byte{
		encHeader,
		encode(encryptedKey),
		encode(iv),
		encode(ciphertext),
		encode(tag),
	}, []byte{dot}), nil
}

// prepareCEK obtains the content encryption key and the encrypted-key
// segment (empty for "dir"), along with any header parameters the
// key-management algorithm contributes.
func prepareCEK(key jwk.Key, alg string, km jwa.KeyManagement, ce jwa.ContentEncryption, d *JweDescriptor) (cek []byte, params map[string]any, encryptedKey []byte, err error) {
	switch km.Category {
	case "dir":
		secret, ok := key.Material().([]byte)
		if !ok {
			return nil, nil, nil, newError(InvalidHeader, "alg", fmt.Errorf("dir key management requires a symmetric key"))
		}
		if len(secret)*8 != ce.KeyBits {
			return nil, nil, nil, newError(InvalidHeader, "enc", fmt.Errorf("key size does not match %s", ce.Name))
		}
		return secret, nil, nil, nil

	case "kw", "gcmkw", "rsa":
		cek, err = randomCEK(ce.KeyBits / 8)
		if err != nil {
			return nil, nil, nil, newError(InvalidHeader, "alg", err)
		}
		wrapper, ok := key.KeyWrapper(alg)
		if !ok {
			return nil, nil, nil, newError(InvalidHeader, "alg", fmt.Errorf("key does not support %s", alg))
		}
		encryptedKey, params, err = wrapper.WrapKey(cek)
		if err != nil {
			return nil, nil, nil, newError(InvalidHeader, "alg", err)
		}
		return cek, params, encryptedKey, nil

	case "pbes2":
		cek, err = randomCEK(ce.KeyBits / 8)
		if err != nil {
			return nil, nil, nil, newError(InvalidHeader, "alg", err)
		}
		wrapper, ok := key.KeyWrapper(alg)
		if !ok {
			return nil, nil, nil, newError(InvalidHeader, "alg", fmt.Errorf("key does not support %s", alg))
		}
		encryptedKey, params, err = wrapper.WrapKey(cek)
		if err != nil {
			return nil, nil, nil, newError(InvalidHeader, "alg", err)
		}
		return cek, params, encryptedKey, nil

	case "ecdh":
		return prepareECDH(key, alg, km, ce, d)

	default:
		return nil, nil, nil, newError(InvalidHeader, "alg", fmt.Errorf("unsupported key management algorithm %q", alg))
	}
}

func prepareECDH(key jwk.Key, alg string, km jwa.KeyManagement, ce jwa.ContentEncryption, d *JweDescriptor) ([]byte, map[string]any, []byte, error) {
	recipient, ok := key.(jwk.KeyAgreer)
	if !ok {
		return nil, nil, nil, newError(InvalidHeader, "alg", fmt.Errorf("key does not support ECDH-ES agreement"))
	}
	ephemeral, err := recipient.GenerateEphemeral()
	if err != nil {
		return nil, nil, nil, newError(InvalidHeader, "epk", err)
	}
	ephemeralKey, ok := ephemeral.(jwk.Key)
	if !ok {
		return nil, nil, nil, newError(InvalidHeader, "epk", fmt.Errorf("ephemeral key does not implement jwk.Key"))
	}
	epkJSON, err := jwk.Write(ephemeralKey)
	if err != nil {
		return nil, nil, nil, newError(InvalidHeader, "epk", err)
	}
	shared, err := ephemeral.AgreeWithPeer(recipient.PublicBytes())
	if err != nil {
		return nil, nil, nil, newError(InvalidHeader, "alg", err)
	}

	params := map[string]any{"epk": rawJSON(epkJSON)}
	if d.PartyUInfo != nil {
		params["apu"] = string(encode(d.PartyUInfo))
	}
	if d.PartyVInfo != nil {
		params["apv"] = string(encode(d.PartyVInfo))
	}

	if !km.WrapsCEK {
		cek := jwe.ECDHES{
			SharedSecret: shared,
			AlgorithmID:  []byte(ce.Name),
			PartyUInfo:   d.PartyUInfo,
			PartyVInfo:   d.PartyVInfo,
		}.Derive(ce.KeyBits)
		return cek, params, nil, nil
	}

	kek := jwe.ECDHES{
		SharedSecret: shared,
		AlgorithmID:  []byte(alg),
		PartyUInfo:   d.PartyUInfo,
		PartyVInfo:   d.PartyVInfo,
	}.Derive(km.KeyBits)
	cek, err := randomCEK(ce.KeyBits / 8)
	if err != nil {
		return nil, nil, nil, newError(InvalidHeader, "alg", err)
	}
	encryptedKey, _, err := (jwe.AESKeyWrap{KEK: kek}).WrapKey(cek)
	if err != nil {
		return nil, nil, nil, newError(InvalidHeader, "alg", err)
	}
	return cek, params, encryptedKey, nil
}

func payloadBytes(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case []byte:
		return p, nil
	case *JwsDescriptor:
		return writeJWS(p)
	case *JweDescriptor:
		return writeJWE(p)
	default:
		return nil, newError(InvalidHeader, "", fmt.Errorf("jwt: unsupported nested payload type %T", payload))
	}
}

func isNestedDescriptor(payload any) bool {
	switch payload.(type) {
	case *JwsDescriptor, *JweDescriptor:
		return true
	default:
		return false
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
