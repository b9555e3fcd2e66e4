// Copyright (c) 2025 A Bit of Help, Inc.

// Package codec provides the byte-stream compressors available to the
// archiver.
//
// A single Codec serves two layers of the archive format: whole-buffer
// Compress/Decompress for the individually compressed per-file payloads,
// and NewWriter/NewReader streams for the container-level compression
// wrapped around the whole archive. Implementations must tolerate empty
// input and clamp out-of-range levels rather than fail.
package codec

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Codec is a byte-stream compressor usable both on in-memory buffers and
// as a wrapping stream.
type Codec interface {
	// Name returns the codec's registry name.
	Name() string

	// Compress compresses a complete in-memory buffer. A level <= 0
	// selects the codec's default level.
	Compress(data []byte, level int) ([]byte, error)

	// Decompress reverses Compress.
	Decompress(data []byte) ([]byte, error)

	// NewWriter returns a stream that compresses everything written to it
	// into w. Close must be called to flush the codec trailer before the
	// underlying writer is closed.
	NewWriter(w io.Writer, level int) (io.WriteCloser, error)

	// NewReader returns a stream that decompresses r.
	NewReader(r io.Reader) (io.ReadCloser, error)
}

var registry = map[string]Codec{}

func register(c Codec) {
	registry[c.Name()] = c
}

// ByName resolves a registered codec by name, case-insensitively.
func ByName(name string) (Codec, error) {
	c, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return c, nil
}

// Default returns the codec used when none is configured.
func Default() Codec {
	return registry[zstdName]
}

// Names lists the registered codec names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
