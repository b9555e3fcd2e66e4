// Copyright (c) 2025 A Bit of Help, Inc.

package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abitofhelp/treepack/pkg/codec"
	customErrors "github.com/abitofhelp/treepack/pkg/errors"
	"github.com/abitofhelp/treepack/pkg/task"
	"go.uber.org/zap"
)

// Options select the archive layout and compression for a write.
type Options struct {
	// Codec names the compression codec; empty selects the default.
	Codec string

	// Container names the entry layout; empty selects the default.
	Container string

	// Level is the compression level applied to the archive stream.
	Level int
}

func (o Options) codec() (codec.Codec, error) {
	if o.Codec == "" {
		return codec.Default(), nil
	}
	return codec.ByName(o.Codec)
}

func (o Options) container() (Container, error) {
	if o.Container == "" {
		return DefaultContainer(), nil
	}
	return ContainerByName(o.Container)
}

// Write assembles the successful entries of a run into a single archive
// file at path. Entries are written in the order they appear in the
// result, which the pipeline has already sorted by relative path. The
// archive is staged in a temporary file in the target directory and only
// renamed into place after a successful sync, so a failed write never
// leaves a truncated archive behind. An archive with zero entries is
// valid. Failures are reported as ErrArchiveIO.
func Write(ctx context.Context, logger *zap.Logger, path string, result *task.RunResult, opts Options) error {
	c, err := opts.codec()
	if err != nil {
		return fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
	}
	cont, err := opts.container()
	if err != nil {
		return fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := writePreamble(tmp, c.Name(), cont.Name()); err != nil {
		return fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
	}

	stream, err := c.NewWriter(tmp, opts.Level)
	if err != nil {
		return fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
	}
	// An abandoned write must still close the stream to stop the encoder workers.
	streamOpen := true
	defer func() {
		if streamOpen {
			stream.Close()
		}
	}()

	builder := cont.NewBuilder(stream)
	entries := result.Successes()
	for _, e := range entries {
		// A canceled run abandons the temp file instead of renaming it
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("archive write canceled: %w", err)
		}
		if err := builder.Append(e.Meta, e.Payload); err != nil {
			return fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
		}
		logger.Debug("Appended archive entry",
			zap.String("path", e.Meta.RelPath),
			zap.Int64("compressed_bytes", e.Meta.Size),
			zap.Int64("original_bytes", e.Meta.OrigSize))
	}

	if err := builder.Close(); err != nil {
		return fmt.Errorf("%w: finalize container: %v", customErrors.ErrArchiveIO, err)
	}
	streamOpen = false
	if err := stream.Close(); err != nil {
		return fmt.Errorf("%w: finalize compression stream: %v", customErrors.ErrArchiveIO, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync archive: %v", customErrors.ErrArchiveIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close archive: %v", customErrors.ErrArchiveIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", customErrors.ErrArchiveIO, err)
	}
	committed = true

	logger.Debug("Archive written",
		zap.String("path", path),
		zap.String("codec", c.Name()),
		zap.String("container", cont.Name()),
		zap.Int("entries", len(entries)))
	return nil
}
