// Copyright (c) 2025 A Bit of Help, Inc.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abitofhelp/treepack/pkg/archive"
	"github.com/abitofhelp/treepack/pkg/codec"
	"github.com/abitofhelp/treepack/pkg/config"
	"github.com/abitofhelp/treepack/pkg/logger"
	"github.com/abitofhelp/treepack/pkg/pipeline"
	"github.com/abitofhelp/treepack/pkg/progress"
	"github.com/abitofhelp/treepack/pkg/report"
	"github.com/abitofhelp/treepack/pkg/scanner"
	"github.com/abitofhelp/treepack/pkg/task"
	"github.com/abitofhelp/treepack/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExitFunc is a function that exits the program with a given status code
type ExitFunc func(int)

// DefaultExitFunc is the default implementation of ExitFunc
var DefaultExitFunc = os.Exit

// CompressFunc is a function type for the compress operation
type CompressFunc func(ctx context.Context, log *zap.Logger, cfg *config.Config, out io.Writer, inputFolder, outputFile string) error

// ExtractFunc is a function type for the decompress operation
type ExtractFunc func(ctx context.Context, log *zap.Logger, cfg *config.Config, out io.Writer, inputFile, outputFolder string) error

func usage() {
	fmt.Println("Usage: treepack compress <input_folder> <output_file>")
	fmt.Println("       treepack decompress <input_file> <output_folder>")
}

// run is the main logic of the application, extracted for testability
func run(args []string, log *zap.Logger, cfg *config.Config, out io.Writer, exit ExitFunc, compressFn CompressFunc, extractFn ExtractFunc) {
	if len(args) != 3 {
		usage()
		exit(1)
		return
	}

	command := args[0]
	inputPath := args[1]
	outputPath := args[2]

	// Create a context with cancellation for safety
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown with improved signal handling
	// Defer the cleanup function to ensure signal handling is properly cleaned up
	cleanup := utils.SetupGracefulShutdown(cancel, log)
	defer cleanup()

	var err error
	switch command {
	case "compress":
		err = compressFn(ctx, log, cfg, out, inputPath, outputPath)
	case "decompress":
		err = extractFn(ctx, log, cfg, out, inputPath, outputPath)
	default:
		fmt.Printf("Unknown command %q\n\n", command)
		usage()
		exit(1)
		return
	}

	if err != nil {
		log.Error("Run failed",
			zap.String("command", command),
			zap.Error(err))
		exit(1)
		return
	}
}

// compressFolder archives every regular file under inputFolder into a
// single compressed archive at outputFile.
func compressFolder(ctx context.Context, log *zap.Logger, cfg *config.Config, out io.Writer, inputFolder, outputFile string) error {
	log = log.With(zap.String("run_id", uuid.New().String()))

	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return err
	}

	tasks, err := scanner.Scan(log, inputFolder)
	if err != nil {
		return err
	}

	totalBytes := task.TotalSize(tasks)
	log.Info("Starting compression",
		zap.String("input_folder", inputFolder),
		zap.String("output_file", outputFile),
		zap.String("codec", c.Name()),
		zap.String("container", cfg.Container),
		zap.Int("level", cfg.Level),
		zap.Int("file_count", len(tasks)),
		zap.Int64("total_bytes", totalBytes))

	// The live progress line only makes sense on an interactive terminal
	counter := progress.NewCounter(len(tasks), totalBytes)
	var renderer *progress.Renderer
	if !cfg.Quiet && progress.IsTerminal(os.Stderr) {
		renderer = progress.StartRenderer(counter, os.Stderr)
	}

	result, err := pipeline.Run(ctx, log, tasks, pipeline.Config{
		Codec:     c,
		Level:     cfg.Level,
		Workers:   cfg.Workers,
		ChunkSize: cfg.ChunkSize,
		Counter:   counter,
	})
	if renderer != nil {
		renderer.Stop()
	}
	if err != nil {
		return err
	}

	if err := archive.Write(ctx, log, outputFile, result, archive.Options{
		Codec:     cfg.Codec,
		Container: cfg.Container,
		Level:     cfg.Level,
	}); err != nil {
		return err
	}

	report.Print(out, result)
	report.Summary(out, result, inputFolder, outputFile)
	return nil
}

// extractArchive restores the archive at inputFile into outputFolder.
func extractArchive(ctx context.Context, log *zap.Logger, cfg *config.Config, out io.Writer, inputFile, outputFolder string) error {
	log = log.With(zap.String("run_id", uuid.New().String()))

	log.Info("Starting extraction",
		zap.String("input_file", inputFile),
		zap.String("output_folder", outputFolder))

	start := time.Now()
	entries, err := archive.Extract(ctx, log, inputFile, outputFolder)
	if err != nil {
		return err
	}

	report.ExtractionSummary(out, entries, inputFile, outputFolder, time.Since(start))
	return nil
}

func main() {
	// Parse command line arguments
	flag.Parse()
	args := flag.Args()

	// Load configuration from the environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		DefaultExitFunc(1)
		return
	}

	// Initialize zap logger
	log := logger.InitLogger(cfg.LogLevel)
	defer func() {
		// Ensure logger syncs before exit
		logger.SafeSync(log)
	}()

	// Run the application with the default exit function and the real operations
	run(args, log, cfg, os.Stdout, DefaultExitFunc, compressFolder, extractArchive)
}
