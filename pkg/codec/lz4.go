// Copyright (c) 2025 A Bit of Help, Inc.

package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

const lz4Name = "lz4"

func init() {
	register(lz4Codec{})
}

// lz4Codec compresses with the LZ4 frame format. LZ4 exposes a fast mode
// plus nine high-compression tiers, so levels above nine clamp to Level9.
type lz4Codec struct{}

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

// Name returns the codec's registry name.
func (lz4Codec) Name() string { return lz4Name }

func (lz4Codec) tier(level int) lz4.CompressionLevel {
	switch {
	case level <= 0:
		return lz4.Fast
	case level >= len(lz4Levels):
		return lz4.Level9
	default:
		return lz4Levels[level]
	}
}

// Compress compresses data into a single lz4 frame.
func (c lz4Codec) Compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer

	w, err := c.NewWriter(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress lz4 data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize lz4 frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func (c lz4Codec) Decompress(data []byte) ([]byte, error) {
	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress lz4 data: %w", err)
	}
	return out, nil
}

// NewWriter returns an lz4 stream writing compressed output to w.
func (c lz4Codec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	zw := lz4.NewWriter(w)
	if err := zw.Apply(lz4.CompressionLevelOption(c.tier(level))); err != nil {
		return nil, fmt.Errorf("failed to configure lz4 writer: %w", err)
	}
	return zw, nil
}

// NewReader returns a stream decompressing r.
func (c lz4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
