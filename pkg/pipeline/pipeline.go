// Copyright (c) 2025 A Bit of Help, Inc.

// Package pipeline runs the per-file archive chain concurrently over a
// bounded worker pool.
//
// Each discovered file moves through the same chain: ingest the bytes,
// compress them into a payload, and build the archive entry descriptor.
// Files are independent, so the chain runs fan-out across workers and the
// outcomes are aggregated by a single collector goroutine. A failure in
// one file never aborts the run; it is recorded against that file and the
// rest of the run continues.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/abitofhelp/treepack/pkg/archive"
	"github.com/abitofhelp/treepack/pkg/codec"
	customErrors "github.com/abitofhelp/treepack/pkg/errors"
	"github.com/abitofhelp/treepack/pkg/ingest"
	"github.com/abitofhelp/treepack/pkg/progress"
	"github.com/abitofhelp/treepack/pkg/task"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config carries the knobs for a pipeline run.
type Config struct {
	// Codec compresses each file's bytes into its payload.
	Codec codec.Codec

	// Level is the compression level for per-file payloads.
	Level int

	// Workers bounds the number of files processed concurrently.
	// Non-positive values select the number of logical CPUs.
	Workers int

	// ChunkSize is the read buffer size handed to the ingestor.
	ChunkSize int

	// Counter, when set, receives per-file progress updates.
	Counter *progress.Counter
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Run processes every task and returns exactly one outcome per task,
// sorted by relative path. Per-file failures are contained in their
// entries; Run itself only fails on invalid arguments or when ctx is
// canceled, and even then the returned result still holds one outcome per
// task.
func Run(ctx context.Context, logger *zap.Logger, tasks []task.FileTask, cfg Config) (*task.RunResult, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Codec == nil {
		return nil, fmt.Errorf("codec cannot be nil")
	}

	startTime := time.Now()
	workers := cfg.workers()
	logger.Debug("Pipeline run starting",
		zap.Int("file_count", len(tasks)),
		zap.Int("workers", workers),
		zap.String("codec", cfg.Codec.Name()),
		zap.Int("level", cfg.Level))

	entryCh := make(chan task.ProcessedEntry, workers)

	// A single collector owns the result slice, so workers never share it.
	entries := make([]task.ProcessedEntry, 0, len(tasks))
	collectDone := make(chan struct{})
	go func() {
		defer close(collectDone)
		for e := range entryCh {
			if e.OK() {
				if cfg.Counter != nil {
					cfg.Counter.FileSucceeded(uint64(e.Meta.Size))
				}
				logger.Debug("Processed file",
					zap.String("path", e.Task.RelPath),
					zap.Int64("original_bytes", e.Meta.OrigSize),
					zap.Int64("compressed_bytes", e.Meta.Size))
			} else {
				if cfg.Counter != nil {
					cfg.Counter.FileFailed()
				}
				logger.Warn("File failed",
					zap.String("path", e.Task.RelPath),
					zap.Error(e.Err))
			}
			entries = append(entries, e)
		}
	}()

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for _, ft := range tasks {
		ft := ft // per-iteration copy; pre-go1.22 loop variables are shared
		g.Go(func() error {
			entryCh <- processTask(ctx, ft, cfg)
			return nil
		})
	}

	// Workers never return errors; per-file failures live in the entries.
	_ = g.Wait()
	close(entryCh)
	<-collectDone

	result := &task.RunResult{Entries: entries, Elapsed: time.Since(startTime)}
	result.Sort()

	succeeded, failed := result.Counts()
	logger.Debug("Pipeline run finished",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Duration("elapsed", result.Elapsed))

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("pipeline canceled: %w", err)
	}
	return result, nil
}

// processTask runs one file through ingest, compress, and build. It always
// returns an entry for the task; failures, including panics from a
// misbehaving codec, are captured in the entry's Err field.
func processTask(ctx context.Context, ft task.FileTask, cfg Config) (entry task.ProcessedEntry) {
	entry = task.ProcessedEntry{Task: ft}
	defer func() {
		if r := recover(); r != nil {
			entry.Payload = nil
			entry.Meta = task.EntryMeta{}
			entry.Err = customErrors.NewFileError(ft.RelPath, "process", fmt.Errorf("panic: %v", r))
		}
	}()

	// A canceled run marks the remaining files failed instead of dropping
	// them, so the result still holds one outcome per task.
	if err := ctx.Err(); err != nil {
		entry.Err = customErrors.NewFileError(ft.RelPath, "process", err)
		return entry
	}

	var sink ingest.Sink
	if cfg.Counter != nil {
		sink = func(n int) { cfg.Counter.AddBytesRead(uint64(n)) }
	}
	data, err := ingest.ReadAll(ft.AbsPath, cfg.ChunkSize, sink)
	if err != nil {
		entry.Err = customErrors.NewFileError(ft.RelPath, "ingest", err)
		return entry
	}

	payload, err := cfg.Codec.Compress(data, cfg.Level)
	if err != nil {
		entry.Err = customErrors.NewFileError(ft.RelPath, "compress",
			fmt.Errorf("%w: %v", customErrors.ErrCompress, err))
		return entry
	}

	meta, err := archive.BuildEntry(ft, payload, int64(len(data)))
	if err != nil {
		entry.Err = customErrors.NewFileError(ft.RelPath, "build_entry", err)
		return entry
	}

	entry.Payload = payload
	entry.Meta = meta
	return entry
}
