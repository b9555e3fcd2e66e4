// Copyright (c) 2025 A Bit of Help, Inc.

package archive

import (
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
	"unicode/utf8"

	customErrors "github.com/abitofhelp/treepack/pkg/errors"
	"github.com/abitofhelp/treepack/pkg/task"
)

// maxPathLen bounds entry paths. Longer paths cannot round-trip through
// every supported container format.
const maxPathLen = 4096

// BuildEntry validates a task's relative path and assembles the archive
// entry descriptor for its compressed payload. origSize is the number of
// bytes read from the source file. Validation failures are reported as
// ErrPathEncoding; the function performs no I/O.
func BuildEntry(t task.FileTask, payload []byte, origSize int64) (task.EntryMeta, error) {
	if err := validateEntryPath(t.RelPath); err != nil {
		return task.EntryMeta{}, fmt.Errorf("%w: %v", customErrors.ErrPathEncoding, err)
	}

	meta := task.EntryMeta{
		RelPath:  t.RelPath,
		Size:     int64(len(payload)),
		OrigSize: origSize,
		Mode:     t.Mode.Perm(),
		ModTime:  t.ModTime,
	}
	meta.Checksum = entryChecksum(meta)
	return meta, nil
}

// entryChecksum computes the CRC-32 over the canonical form of an entry
// descriptor. Both sides of the tar container use it to detect header
// corruption.
func entryChecksum(meta task.EntryMeta) uint32 {
	canonical := fmt.Sprintf("%s|%d|%d", meta.RelPath, meta.Size, meta.OrigSize)
	return crc32.ChecksumIEEE([]byte(canonical))
}

// validateEntryPath enforces the rules for paths stored in an archive:
// non-empty, slash-separated, relative, valid UTF-8, bounded length, and
// free of parent directory references.
func validateEntryPath(p string) error {
	switch {
	case p == "":
		return errors.New("empty path")
	case len(p) > maxPathLen:
		return fmt.Errorf("path exceeds %d bytes", maxPathLen)
	case !utf8.ValidString(p):
		return errors.New("path is not valid UTF-8")
	case strings.HasPrefix(p, "/"):
		return errors.New("absolute path")
	}

	for _, segment := range strings.Split(p, "/") {
		switch segment {
		case "":
			return errors.New("empty path segment")
		case ".", "..":
			return fmt.Errorf("path contains %q segment", segment)
		}
	}
	return nil
}
