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

// Package jwe implements the cryptographic mechanics of JSON Web
// Encryption (RFC 7516/7518 §4-5): content encryption key (CEK) wrapping
// and unwrapping, authenticated content encryption and decryption, and
// DEFLATE payload compression.
//
// The package has no notion of a JWK; every constructor takes the raw key
// material (a byte secret, an *rsa.PublicKey, an ECDH shared secret, and so
// on) it needs, so that jose/jwk can compose it with its own key model
// without an import cycle.
package jwe

import "errors"

// ErrUnsupportedAlgorithm is returned when a KeyWrapper/KeyUnwrapper or
// content cipher constructor is asked for an algorithm name it does not
// implement.
var ErrUnsupportedAlgorithm = errors.New("jwe: unsupported algorithm")

// ErrAuthenticationFailed is returned by an AuthenticatedDecryptor when
// the integrity tag does not verify.
var ErrAuthenticationFailed = errors.New("jwe: authentication failed")

// KeyWrapper produces the encrypted-key segment of a JWE from a content
// encryption key, along with any additional header parameters the
// algorithm must contribute (e.g. "epk", "apu", "apv", "iv", "tag", "p2s",
// "p2c").
type KeyWrapper interface {
	WrapKey(cek []byte) (encryptedKey []byte, headerParams map[string]any, err error)
}

// KeyUnwrapper recovers a content encryption key from the encrypted-key
// segment of a JWE, given the header parameters the wrapping side emitted.
type KeyUnwrapper interface {
	UnwrapKey(encryptedKey []byte, headerParams map[string]any) (cek []byte, err error)
}

// AuthenticatedEncryptor performs JWE content encryption: it produces an
// IV, ciphertext, and authentication tag from a CEK, plaintext, and AAD
// (the ASCII bytes of the base64url-encoded JWE header).
type AuthenticatedEncryptor interface {
	Encrypt(cek, plaintext, aad []byte) (iv, ciphertext, tag []byte, err error)
}

// AuthenticatedDecryptor performs JWE content decryption, returning
// ErrAuthenticationFailed if the tag does not verify.
type AuthenticatedDecryptor interface {
	Decrypt(cek, iv, ciphertext, tag, aad []byte) (plaintext []byte, err error)
}
