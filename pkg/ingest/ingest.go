// Copyright (c) 2025 A Bit of Help, Inc.

// Package ingest provides the file reading stage for the archive pipeline.
package ingest

import (
	"fmt"
	"io"
	"os"

	customErrors "github.com/abitofhelp/treepack/pkg/errors"
)

// DefaultChunkSize is the read buffer size used when none is configured.
const DefaultChunkSize = 32 * 1024

// Sink receives the size of every chunk as it is read, so a shared
// progress counter can advance while large files are still in flight.
type Sink func(n int)

// ReadAll reads the entire file at path into memory in chunkSize chunks,
// reporting each chunk to sink as it lands. A nil sink is allowed. Open
// failures are reported as ErrOpenFailed and read failures as
// ErrReadFailed so callers can classify the outcome per file.
func ReadAll(path string, chunkSize int, sink Sink) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", customErrors.ErrOpenFailed, err)
	}
	defer file.Close()

	// Preallocate from the file size when available. The size is advisory
	// only; the read loop below remains correct if the file grows or shrinks
	// between Stat and the reads.
	var data []byte
	if info, statErr := file.Stat(); statErr == nil && info.Size() > 0 {
		data = make([]byte, 0, info.Size())
	}

	buffer := make([]byte, chunkSize)
	for {
		n, readErr := file.Read(buffer)
		if n > 0 {
			data = append(data, buffer[:n]...)
			if sink != nil {
				sink(n)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: %v", customErrors.ErrReadFailed, readErr)
		}
	}

	return data, nil
}
