package jwt

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/deep-rent/jose/internal/buffer"
	"github.com/deep-rent/jose/internal/jsonx"
	"github.com/deep-rent/jose/jose/jwa"
	"github.com/deep-rent/jose/jose/jwe"
	"github.com/deep-rent/jose/jose/jwk"
)

// payloadPool backs the plaintext buffer every JwtDocument owns, whether
// its token arrived as a JWS or a JWE.
var payloadPool = buffer.NewPool()

// Parse decodes a compact-serialization JWS or JWE and validates it
// against policy: header well-formedness, critical-header handlers,
// signature verification or authenticated decryption, DEFLATE inflation,
// and registered claim checks. The returned JwtDocument owns pooled memory
// and must be disposed exactly once.
func Parse(data []byte, policy *Policy) (*JwtDocument, error) {
	if policy == nil {
		return nil, newError(InvalidHeader, "", fmt.Errorf("jwt: a policy is required"))
	}
	if len(data) > policy.maxTokenSize {
		return nil, newError(SizeLimitExceeded, "", fmt.Errorf("token exceeds %d bytes", policy.maxTokenSize))
	}
	segs, err := tokenize(data)
	if err != nil {
		return nil, err
	}

	header, err := resolveHeader(segs, policy)
	if err != nil {
		return nil, err
	}

	var plaintext []byte
	if segs.isJWE() {
		plaintext, err = decryptJWE(header, segs, policy)
	} else {
		plaintext, err = verifyJWS(header, segs, policy)
	}
	if err != nil {
		return nil, err
	}

	if zip := header.Compression(); zip != "" {
		if zip != "DEF" {
			return nil, newError(DecompressionFailed, "zip", fmt.Errorf("unsupported compression %q", zip))
		}
		inflated, derr := jwe.Decompress(plaintext, policy.maxDecompressed)
		if derr != nil {
			return nil, newError(DecompressionFailed, "zip", derr)
		}
		plaintext = inflated
	}

	handle := payloadPool.Rent(len(plaintext))
	buf := handle.Bytes()
	copy(buf, plaintext)

	if header.ContentType() == "JWT" {
		if !policy.ignoreNestedToken {
			nested, nerr := Parse(buf, policy)
			handle.Release()
			if nerr != nil {
				return nil, nerr
			}
			return &JwtDocument{header: header, nested: nested, valid: true}, nil
		}
		return &JwtDocument{header: header, raw: buf, handle: handle, valid: true}, nil
	}

	doc, err := jsonx.Parse(buf)
	if err != nil {
		handle.Release()
		return nil, newError(MalformedToken, "", err)
	}
	payload := JwtPayload{doc: doc}
	d := &JwtDocument{header: header, payload: payload, handle: handle, valid: true}

	if err := validateClaims(payload, policy); err != nil {
		d.Dispose()
		return nil, err
	}

	return d, nil
}

// resolveHeader decodes the header segment, consulting and populating the
// policy's header cache. A cache hit also replays the cached critical-
// header verdict, so a handler does not run again for a header that is
// still cached. With the cache off, handlers run on every parse.
func resolveHeader(segs segments, policy *Policy) (JwtHeader, error) {
	raw := segs.parts[0]
	if policy.headerCacheOff {
		header, err := buildHeader(raw)
		if err != nil {
			return JwtHeader{}, err
		}
		if err := checkCritical(header, policy); err != nil {
			return JwtHeader{}, err
		}
		return header, nil
	}

	key := string(raw)
	if cached, ok := policy.cache.get(key); ok {
		policy.logger.Debug("Header cache hit")
		if cached.critical != nil {
			return JwtHeader{}, cached.critical
		}
		return cached.header, nil
	}
	policy.logger.Debug("Header cache miss")

	header, err := buildHeader(raw)
	if err != nil {
		return JwtHeader{}, err
	}
	critErr := checkCritical(header, policy)
	policy.cache.put(key, cachedHeader{header: header, critical: critErr})
	if critErr != nil {
		return JwtHeader{}, critErr
	}
	return header, nil
}

func buildHeader(raw []byte) (JwtHeader, error) {
	decoded, err := decode(raw)
	if err != nil {
		return JwtHeader{}, err
	}
	encoded := append([]byte(nil), raw...)
	return parseHeader(encoded, decoded)
}

func checkCritical(header JwtHeader, policy *Policy) error {
	for _, name := range header.Critical() {
		if _, ok := header.find(name); !ok {
			return newError(InvalidHeader, name, nil)
		}
		handler, ok := policy.critical[name]
		if !ok {
			return newError(CriticalHeaderMissingHandler, name, nil)
		}
		policy.logger.Debug("Dispatching critical header handler", "member", name)
		if err := handler(header); err != nil {
			return newError(CriticalHeaderRejected, name, err)
		}
	}
	return nil
}

// resolveKeys gathers every candidate key the policy's providers offer for
// header, failing with notFound if none is available.
func resolveKeys(header JwtHeader, policy *Policy, notFound Kind) ([]jwk.Key, error) {
	var out []jwk.Key
	for _, p := range policy.providers {
		keys, err := p.GetKeys(header)
		if err != nil {
			return nil, newError(notFound, "", err)
		}
		out = append(out, keys...)
	}
	if len(out) == 0 {
		return nil, newError(notFound, "", nil)
	}
	return out, nil
}

// signingInput reconstructs the exact bytes a JWS signature was computed
// over: the two encoded header/payload segments joined by a dot.
func signingInput(segs segments) []byte {
	return bytes.Join(segs.parts[:2], []byte{dot})
}

func verifyJWS(header JwtHeader, segs segments, policy *Policy) ([]byte, error) {
	alg := header.Algorithm()
	if alg == "" {
		return nil, newError(InvalidHeader, "alg", fmt.Errorf("missing header member"))
	}
	if alg == jwa.None {
		if !policy.allowUnsecured {
			return nil, newError(SignatureValidationFailed, "alg", fmt.Errorf("alg=none is rejected by policy"))
		}
		if len(segs.parts[2]) != 0 {
			return nil, newError(MalformedToken, "", fmt.Errorf("alg=none requires an empty signature segment"))
		}
		return decode(segs.parts[1])
	}

	sig, err := decode(segs.parts[2])
	if err != nil {
		return nil, err
	}
	msg := signingInput(segs)

	candidates, err := resolveKeys(header, policy, SignatureKeyNotFound)
	if err != nil {
		return nil, err
	}
	for _, k := range candidates {
		v, ok := k.Verifier()
		if !ok {
			continue
		}
		if v.Verify(msg, sig) {
			return decode(segs.parts[1])
		}
	}
	return nil, newError(SignatureValidationFailed, "", nil)
}

func decryptJWE(header JwtHeader, segs segments, policy *Policy) ([]byte, error) {
	alg := header.Algorithm()
	enc := header.Encryption()
	if enc == "" {
		return nil, newError(MissingEncryptionAlgorithm, "enc", nil)
	}
	if alg == "" {
		return nil, newError(InvalidHeader, "alg", fmt.Errorf("missing header member"))
	}
	km, ok := jwa.LookupKeyManagement(alg)
	if !ok {
		return nil, newError(InvalidHeader, "alg", fmt.Errorf("unsupported key management algorithm %q", alg))
	}
	ce, ok := jwa.LookupContentEncryption(enc)
	if !ok {
		return nil, newError(InvalidHeader, "enc", fmt.Errorf("unsupported content encryption algorithm %q", enc))
	}

	encryptedKey, err := decode(segs.parts[1])
	if err != nil {
		return nil, err
	}
	iv, err := decode(segs.parts[2])
	if err != nil {
		return nil, err
	}
	ciphertext, err := decode(segs.parts[3])
	if err != nil {
		return nil, err
	}
	tag, err := decode(segs.parts[4])
	if err != nil {
		return nil, err
	}
	aad := header.EncodedSegment()

	candidates, err := resolveKeys(header, policy, EncryptionKeyNotFound)
	if err != nil {
		return nil, err
	}

	var cek []byte
	for _, k := range candidates {
		if c, ok := unwrapCEK(k, alg, km, header, encryptedKey, ce); ok {
			cek = c
			break
		}
	}
	if cek == nil {
		return nil, newError(DecryptionFailed, "", fmt.Errorf("no candidate key could recover the content encryption key"))
	}

	cipher := jwk.NewSymmetric(cek, "", "enc", "")
	dec, ok := cipher.AuthenticatedDecryptor(enc)
	if !ok {
		return nil, newError(DecryptionFailed, "enc", fmt.Errorf("content encryption key size does not match %s", enc))
	}
	plaintext, err := dec.Decrypt(cek, iv, ciphertext, tag, aad)
	if err != nil {
		return nil, newError(DecryptionFailed, "", err)
	}
	return plaintext, nil
}

// unwrapCEK recovers the content encryption key using one candidate key,
// dispatching on the key management algorithm's category. It reports
// ok=false for any failure so the caller can move on to the next
// candidate without leaking which step failed.
func unwrapCEK(key jwk.Key, alg string, km jwa.KeyManagement, header JwtHeader, encryptedKey []byte, ce jwa.ContentEncryption) ([]byte, bool) {
	switch km.Category {
	case "dir":
		unwrapper, ok := key.KeyUnwrapper(jwa.Dir)
		if !ok {
			return nil, false
		}
		cek, err := unwrapper.UnwrapKey(encryptedKey, nil)
		return cek, err == nil
	case "kw", "rsa":
		unwrapper, ok := key.KeyUnwrapper(alg)
		if !ok {
			return nil, false
		}
		cek, err := unwrapper.UnwrapKey(encryptedKey, nil)
		return cek, err == nil
	case "gcmkw":
		unwrapper, ok := key.KeyUnwrapper(alg)
		if !ok {
			return nil, false
		}
		iv, tag := header.IV(), header.Tag()
		if iv == nil || tag == nil {
			return nil, false
		}
		cek, err := unwrapper.UnwrapKey(encryptedKey, map[string]any{"iv": iv, "tag": tag})
		return cek, err == nil
	case "pbes2":
		unwrapper, ok := key.KeyUnwrapper(alg)
		if !ok {
			return nil, false
		}
		p2s := header.SaltInput()
		p2c := header.Iterations()
		if p2s == nil || p2c == 0 {
			return nil, false
		}
		cek, err := unwrapper.UnwrapKey(encryptedKey, map[string]any{"p2s": p2s, "p2c": p2c})
		return cek, err == nil
	case "ecdh":
		return unwrapECDH(key, alg, km, header, encryptedKey, ce)
	default:
		return nil, false
	}
}

// unwrapECDH performs ECDH-ES key agreement against the header's "epk"
// member and either returns the derived bytes directly as the CEK (plain
// ECDH-ES) or uses them as a key-encryption key to unwrap the CEK
// (ECDH-ES+AxxxKW).
func unwrapECDH(key jwk.Key, alg string, km jwa.KeyManagement, header JwtHeader, encryptedKey []byte, ce jwa.ContentEncryption) ([]byte, bool) {
	agreer, ok := key.(jwk.KeyAgreer)
	if !ok {
		return nil, false
	}
	epkJSON := header.EphemeralPublicKey()
	if epkJSON == nil {
		return nil, false
	}
	epkKey, err := jwk.Parse(epkJSON)
	if err != nil {
		return nil, false
	}
	epkAgreer, ok := epkKey.(jwk.KeyAgreer)
	if !ok || epkAgreer.Curve() != agreer.Curve() {
		return nil, false
	}

	shared, err := agreer.AgreeWithPeer(epkAgreer.PublicBytes())
	if err != nil {
		return nil, false
	}

	if !km.WrapsCEK {
		derived := jwe.ECDHES{
			SharedSecret: shared,
			AlgorithmID:  []byte(header.Encryption()),
			PartyUInfo:   header.PartyUInfo(),
			PartyVInfo:   header.PartyVInfo(),
		}.Derive(ce.KeyBits)
		return derived, true
	}

	kek := jwe.ECDHES{
		SharedSecret: shared,
		AlgorithmID:  []byte(alg),
		PartyUInfo:   header.PartyUInfo(),
		PartyVInfo:   header.PartyVInfo(),
	}.Derive(km.KeyBits)
	cek, err := (jwe.AESKeyWrap{KEK: kek}).UnwrapKey(encryptedKey, nil)
	return cek, err == nil
}

func validateClaims(payload JwtPayload, policy *Policy) error {
	now := policy.clock()

	if exp := payload.Get("exp"); exp.Valid() {
		if now.After(payload.ExpiresAt().Add(policy.leeway)) {
			return newError(Expired, "exp", nil)
		}
	} else if policy.requireExp {
		return newError(InvalidClaim, "exp", fmt.Errorf("required claim is missing"))
	}

	if nbf := payload.Get("nbf"); nbf.Valid() {
		if now.Before(payload.NotBefore().Add(-policy.leeway)) {
			return newError(NotYetValid, "nbf", nil)
		}
	} else if policy.requireNbf {
		return newError(InvalidClaim, "nbf", fmt.Errorf("required claim is missing"))
	}

	if len(policy.issuers) > 0 {
		iss := payload.Issuer()
		if !slices.Contains(policy.issuers, iss) {
			return newError(InvalidClaim, "iss", fmt.Errorf("issuer %q is not accepted", iss))
		}
	}

	if len(policy.audiences) > 0 && !intersects(payload.Audience(), policy.audiences) {
		return newError(InvalidClaim, "aud", fmt.Errorf("no accepted audience present"))
	}

	return nil
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}
