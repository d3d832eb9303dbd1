package jwe

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Compress applies raw DEFLATE (RFC 1951) compression, used for the "DEF"
// "zip" header value.
func Compress(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress inflates a raw DEFLATE stream, refusing to produce more than
// maxSize bytes of output to defend against decompression-bomb payloads.
func Decompress(compressed []byte, maxSize int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()

	limited := io.LimitReader(r, int64(maxSize)+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(out) > maxSize {
		return nil, fmt.Errorf("jwe: decompressed payload exceeds %d bytes", maxSize)
	}
	return out, nil
}
