// Package blob compresses and decompresses the large artifacts (HTTP bodies
// and headers) stored in pages.db, keeping raw zlib bytes in a binary column
// and recording the format in the meta(schema_version) row.
package blob

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// Compress zlib-compresses data. An empty input compresses to a non-empty,
// valid zlib stream so Decompress(Compress(nil)) round-trips to an empty
// (non-nil-vs-nil is not guaranteed) byte slice.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("blob: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("blob: compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("blob: decompress: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("blob: decompress: %w", err)
	}
	return out, nil
}
