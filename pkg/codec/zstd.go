// Copyright (c) 2025 A Bit of Help, Inc.

package codec

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const zstdName = "zstd"

func init() {
	register(&zstdCodec{encoders: make(map[zstd.EncoderLevel]*zstd.Encoder)})
}

// zstdCodec compresses with Zstandard. Buffer operations share stateless
// encoder/decoder instances because EncodeAll and DecodeAll are safe for
// concurrent use; the instances are created lazily per effective level.
type zstdCodec struct {
	mu       sync.Mutex
	encoders map[zstd.EncoderLevel]*zstd.Encoder
	decoder  *zstd.Decoder
}

// Name returns the codec's registry name.
func (c *zstdCodec) Name() string { return zstdName }

// speed maps a zstd level (1..22) onto the encoder speed tiers. Levels at
// or below zero select the library default.
func (c *zstdCodec) speed(level int) zstd.EncoderLevel {
	if level <= 0 {
		return zstd.SpeedDefault
	}
	return zstd.EncoderLevelFromZstd(level)
}

func (c *zstdCodec) encoder(level int) (*zstd.Encoder, error) {
	tier := c.speed(level)

	c.mu.Lock()
	defer c.mu.Unlock()

	enc, ok := c.encoders[tier]
	if !ok {
		var err error
		enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(tier), zstd.WithZeroFrames(true))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		c.encoders[tier] = enc
	}
	return enc, nil
}

func (c *zstdCodec) bufferDecoder() (*zstd.Decoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.decoder == nil {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		c.decoder = dec
	}
	return c.decoder, nil
}

// Compress compresses data into a single zstd frame. Empty input yields a
// valid zero-length frame rather than no output.
func (c *zstdCodec) Compress(data []byte, level int) ([]byte, error) {
	enc, err := c.encoder(level)
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2+64)), nil
}

// Decompress reverses Compress.
func (c *zstdCodec) Decompress(data []byte) ([]byte, error) {
	dec, err := c.bufferDecoder()
	if err != nil {
		return nil, err
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd data: %w", err)
	}
	return out, nil
}

// NewWriter returns a zstd stream writing compressed output to w.
func (c *zstdCodec) NewWriter(w io.Writer, level int) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(c.speed(level)), zstd.WithZeroFrames(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	return enc, nil
}

// NewReader returns a stream decompressing r.
func (c *zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	return dec.IOReadCloser(), nil
}
