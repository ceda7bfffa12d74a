// Package inflate decompresses FlateDecode stream bodies, shared by the
// cross-reference stream and object stream decoders. It tries a zlib
// reader first and falls back to raw DEFLATE, since PDF writers are
// inconsistent about emitting a valid zlib header.
package inflate

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"
)

// Flate decompresses data, trying zlib framing first and falling back to
// raw DEFLATE.
func Flate(data []byte) ([]byte, error) {
	if r, err := zlib.NewReader(bytes.NewReader(data)); err == nil {
		defer r.Close()
		out, readErr := io.ReadAll(r)
		if readErr == nil {
			return out, nil
		}
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflate: flate decode failed: %w", err)
	}
	return out, nil
}
