// Copyright (c) 2025 A Bit of Help, Inc.

package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

const brotliName = "brotli"

func init() {
	register(brotliCodec{})
}

// brotliCodec compresses with Brotli. Brotli quality runs 0..11, so levels
// from the wider zstd-style scale clamp to BestCompression.
type brotliCodec struct{}

// Name returns the codec's registry name.
func (brotliCodec) Name() string { return brotliName }

func (brotliCodec) quality(level int) int {
	switch {
	case level <= 0:
		return brotli.DefaultCompression
	case level > brotli.BestCompression:
		return brotli.BestCompression
	default:
		return level
	}
}

// Compress compresses data into a single brotli stream.
func (c brotliCodec) Compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer

	w := brotli.NewWriterLevel(&buf, c.quality(level))
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress brotli data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize brotli stream: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func (c brotliCodec) Decompress(data []byte) ([]byte, error) {
	out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress brotli data: %w", err)
	}
	return out, nil
}

// NewWriter returns a brotli stream writing compressed output to w.
func (c brotliCodec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	return brotli.NewWriterLevel(w, c.quality(level)), nil
}

// NewReader returns a stream decompressing r.
func (c brotliCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}
