// Copyright (c) 2025 A Bit of Help, Inc.

// Package archive assembles processed pipeline entries into a single
// archive file and extracts such archives back into a folder tree.
//
// An archive starts with a fixed seven-byte preamble identifying the
// format, the codec the rest of the file is compressed with, and the
// container layout inside that compressed stream:
//
//	offset 0: "TPAK"            format magic
//	offset 4: version           currently 0x01
//	offset 5: codec id          wire id of the stream codec
//	offset 6: container id      wire id of the entry container
//
// Everything after the preamble is one codec stream holding the container.
// Entry payloads inside the container are themselves compressed with the
// same codec, one frame per file.
package archive

import (
	"fmt"
	"io"
)

const (
	archiveMagic  = "TPAK"
	formatVersion = byte(0x01)
	preambleLen   = 7
)

// Wire ids are append-only; never renumber a released id.
var codecIDs = map[string]byte{
	"zstd":   0x01,
	"brotli": 0x02,
	"lz4":    0x03,
}

var containerIDs = map[string]byte{
	"tar":  0x01,
	"cpio": 0x02,
}

var (
	codecNamesByID     = invert(codecIDs)
	containerNamesByID = invert(containerIDs)
)

func invert(m map[string]byte) map[byte]string {
	out := make(map[byte]string, len(m))
	for name, id := range m {
		out[id] = name
	}
	return out
}

// writePreamble emits the fixed archive header for the given codec and
// container names.
func writePreamble(w io.Writer, codecName, containerName string) error {
	codecID, ok := codecIDs[codecName]
	if !ok {
		return fmt.Errorf("no wire id for codec %q", codecName)
	}
	containerID, ok := containerIDs[containerName]
	if !ok {
		return fmt.Errorf("no wire id for container %q", containerName)
	}

	preamble := make([]byte, 0, preambleLen)
	preamble = append(preamble, archiveMagic...)
	preamble = append(preamble, formatVersion, codecID, containerID)

	if _, err := w.Write(preamble); err != nil {
		return fmt.Errorf("write preamble: %v", err)
	}
	return nil
}

// readPreamble consumes and validates the fixed archive header, returning
// the codec and container names the rest of the file was written with.
func readPreamble(r io.Reader) (codecName, containerName string, err error) {
	var preamble [preambleLen]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return "", "", fmt.Errorf("archive too short: %v", err)
	}

	if string(preamble[:len(archiveMagic)]) != archiveMagic {
		return "", "", fmt.Errorf("bad magic %q", preamble[:len(archiveMagic)])
	}
	if preamble[4] != formatVersion {
		return "", "", fmt.Errorf("unsupported format version %d", preamble[4])
	}

	codecName, ok := codecNamesByID[preamble[5]]
	if !ok {
		return "", "", fmt.Errorf("unknown codec id %#x", preamble[5])
	}
	containerName, ok = containerNamesByID[preamble[6]]
	if !ok {
		return "", "", fmt.Errorf("unknown container id %#x", preamble[6])
	}
	return codecName, containerName, nil
}
