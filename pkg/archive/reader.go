// Copyright (c) 2025 A Bit of Help, Inc.

package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abitofhelp/treepack/pkg/codec"
	customErrors "github.com/abitofhelp/treepack/pkg/errors"
	"github.com/abitofhelp/treepack/pkg/task"
	"go.uber.org/zap"
)

// Extract restores every entry of the archive at archivePath into
// outputDir, creating the directory and any parents as needed. Entry
// payloads are decoded with the codec named in the preamble, so extracted
// files are byte-identical to the originals. Extraction is all or nothing
// in intent: the first corrupt entry or I/O failure aborts the run with an
// error, returning the descriptors of the entries already restored.
//
// Entry paths are validated before any write; an entry that would resolve
// outside outputDir aborts the run with ErrUnsafePath.
func Extract(ctx context.Context, logger *zap.Logger, archivePath, outputDir string) ([]task.EntryMeta, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
	}
	defer f.Close()

	codecName, containerName, err := readPreamble(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", customErrors.ErrDecode, err)
	}
	c, err := codec.ByName(codecName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", customErrors.ErrDecode, err)
	}
	cont, err := ContainerByName(containerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", customErrors.ErrDecode, err)
	}

	// The output folder exists even for an archive with zero entries.
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
	}

	stream, err := c.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", customErrors.ErrDecode, err)
	}
	defer stream.Close()

	reader := cont.NewReader(stream)

	var extracted []task.EntryMeta
	for {
		if err := ctx.Err(); err != nil {
			return extracted, fmt.Errorf("extraction canceled: %w", err)
		}

		meta, payload, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return extracted, fmt.Errorf("%w: %v", customErrors.ErrDecode, err)
		}

		dest, err := resolveEntryPath(outputDir, meta.RelPath)
		if err != nil {
			return extracted, err
		}

		data, err := c.Decompress(payload)
		if err != nil {
			return extracted, fmt.Errorf("%w: entry %q: %v", customErrors.ErrDecode, meta.RelPath, err)
		}
		if meta.OrigSize >= 0 && int64(len(data)) != meta.OrigSize {
			return extracted, fmt.Errorf("%w: entry %q decoded to %d bytes, descriptor says %d",
				customErrors.ErrDecode, meta.RelPath, len(data), meta.OrigSize)
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return extracted, fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
		}
		perm := meta.Mode.Perm()
		if perm == 0 {
			perm = 0o644
		}
		if err := os.WriteFile(dest, data, perm); err != nil {
			return extracted, fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
		}
		// WriteFile's permission argument is narrowed by the umask; restore
		// the recorded mode exactly.
		if err := os.Chmod(dest, perm); err != nil {
			return extracted, fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
		}
		if !meta.ModTime.IsZero() {
			if err := os.Chtimes(dest, meta.ModTime, meta.ModTime); err != nil {
				return extracted, fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
			}
		}

		meta.OrigSize = int64(len(data))
		extracted = append(extracted, meta)
		logger.Debug("Extracted entry",
			zap.String("path", meta.RelPath),
			zap.Int64("bytes", meta.OrigSize))
	}

	logger.Debug("Extraction finished",
		zap.String("archive", archivePath),
		zap.String("output_dir", outputDir),
		zap.Int("entries", len(extracted)))
	return extracted, nil
}

// resolveEntryPath joins an entry's archived path onto outputDir after
// confirming it cannot escape it.
func resolveEntryPath(outputDir, relPath string) (string, error) {
	native := filepath.FromSlash(relPath)
	if !filepath.IsLocal(native) {
		return "", fmt.Errorf("%w: %q", customErrors.ErrUnsafePath, relPath)
	}
	return filepath.Join(outputDir, native), nil
}
