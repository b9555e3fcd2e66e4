// Copyright (c) 2025 A Bit of Help, Inc.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/abitofhelp/treepack/pkg/codec"
	customErrors "github.com/abitofhelp/treepack/pkg/errors"
	"github.com/abitofhelp/treepack/pkg/progress"
	"github.com/abitofhelp/treepack/pkg/task"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// makeTasks writes the given files under a fresh temp root and returns one
// task per file, the way the scanner would produce them.
func makeTasks(t *testing.T, files map[string][]byte) []task.FileTask {
	t.Helper()

	root := t.TempDir()
	tasks := make([]task.FileTask, 0, len(files))
	for rel, data := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(abs, data, 0o644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			t.Fatalf("Failed to stat file: %v", err)
		}
		tasks = append(tasks, task.FileTask{
			AbsPath: abs,
			RelPath: rel,
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		})
	}
	return tasks
}

func TestRun_AllSucceed(t *testing.T) {
	files := map[string][]byte{
		"b.txt":       []byte("bravo"),
		"a.txt":       bytes.Repeat([]byte("alpha "), 500),
		"sub/c.empty": {},
	}
	tasks := makeTasks(t, files)
	counter := progress.NewCounter(len(tasks), task.TotalSize(tasks))

	result, err := Run(context.Background(), zaptest.NewLogger(t), tasks, Config{
		Codec:   codec.Default(),
		Level:   3,
		Workers: 2,
		Counter: counter,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Exactly one outcome per task, all successful
	if len(result.Entries) != len(tasks) {
		t.Fatalf("Expected %d entries, got %d", len(tasks), len(result.Entries))
	}
	succeeded, failed := result.Counts()
	if succeeded != len(tasks) || failed != 0 {
		t.Errorf("Expected %d successes and 0 failures, got %d and %d", len(tasks), succeeded, failed)
	}

	// Entries come back sorted by relative path
	if !sort.SliceIsSorted(result.Entries, func(i, j int) bool {
		return result.Entries[i].Task.RelPath < result.Entries[j].Task.RelPath
	}) {
		t.Error("Expected entries sorted by relative path")
	}

	// Each payload decompresses back to the original content
	for _, e := range result.Entries {
		want := files[e.Task.RelPath]
		got, err := codec.Default().Decompress(e.Payload)
		if err != nil {
			t.Fatalf("Failed to decompress payload for %q: %v", e.Task.RelPath, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Payload for %q does not round trip", e.Task.RelPath)
		}
		if e.Meta.OrigSize != int64(len(want)) {
			t.Errorf("Expected OrigSize %d for %q, got %d", len(want), e.Task.RelPath, e.Meta.OrigSize)
		}
	}

	// The counter saw every file and every input byte
	snap := counter.Snapshot()
	if snap.Completed != uint64(len(tasks)) || snap.Failed != 0 {
		t.Errorf("Expected counter %d/0, got %d/%d", len(tasks), snap.Completed, snap.Failed)
	}
	if snap.BytesRead != snap.TotalBytes {
		t.Errorf("Expected %d bytes read, got %d", snap.TotalBytes, snap.BytesRead)
	}

	if result.Elapsed <= 0 {
		t.Error("Expected a positive elapsed duration")
	}
}

func TestRun_IsolatesPerFileFailures(t *testing.T) {
	tasks := makeTasks(t, map[string][]byte{
		"good1.txt": []byte("one"),
		"good2.txt": []byte("two"),
		"good3.txt": []byte("three"),
	})
	tasks = append(tasks, task.FileTask{
		AbsPath: filepath.Join(t.TempDir(), "vanished.txt"),
		RelPath: "vanished.txt",
	})
	counter := progress.NewCounter(len(tasks), task.TotalSize(tasks))

	result, err := Run(context.Background(), zaptest.NewLogger(t), tasks, Config{
		Codec:   codec.Default(),
		Counter: counter,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// One failure, and it did not disturb the other files
	if len(result.Entries) != len(tasks) {
		t.Fatalf("Expected %d entries, got %d", len(tasks), len(result.Entries))
	}
	succeeded, failed := result.Counts()
	if succeeded != 3 || failed != 1 {
		t.Errorf("Expected 3 successes and 1 failure, got %d and %d", succeeded, failed)
	}

	for _, e := range result.Entries {
		if e.Task.RelPath != "vanished.txt" {
			if !e.OK() {
				t.Errorf("Expected %q to succeed, got %v", e.Task.RelPath, e.Err)
			}
			continue
		}

		// The failure is classified and contained
		if e.OK() {
			t.Fatal("Expected vanished.txt to fail")
		}
		if !errors.Is(e.Err, customErrors.ErrOpenFailed) {
			t.Errorf("Expected ErrOpenFailed, got %v", e.Err)
		}
		if !customErrors.IsPerFile(e.Err) {
			t.Errorf("Expected a per-file error kind, got %v", e.Err)
		}
		var fileErr *customErrors.FileError
		if !errors.As(e.Err, &fileErr) {
			t.Fatalf("Expected a FileError, got %T", e.Err)
		}
		if fileErr.Path != "vanished.txt" {
			t.Errorf("Expected error path vanished.txt, got %q", fileErr.Path)
		}
	}

	snap := counter.Snapshot()
	if snap.Completed != 3 || snap.Failed != 1 {
		t.Errorf("Expected counter 3/1, got %d/%d", snap.Completed, snap.Failed)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	tasks := makeTasks(t, map[string][]byte{
		"a.txt": []byte("a"),
		"b.txt": []byte("b"),
		"c.txt": []byte("c"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, zaptest.NewLogger(t), tasks, Config{Codec: codec.Default()})
	if err == nil {
		t.Fatal("Expected an error from a canceled run, got nil")
	}

	// Every task still gets an outcome, all failed
	if len(result.Entries) != len(tasks) {
		t.Fatalf("Expected %d entries, got %d", len(tasks), len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.OK() {
			t.Errorf("Expected %q to be marked failed after cancellation", e.Task.RelPath)
		}
	}
}

func TestRun_EmptyTasks(t *testing.T) {
	result, err := Run(context.Background(), zaptest.NewLogger(t), nil, Config{Codec: codec.Default()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(result.Entries))
	}
}

func TestRun_InvalidEntryPath(t *testing.T) {
	tasks := makeTasks(t, map[string][]byte{"fine.txt": []byte("fine")})

	// Reuse the real file under a hostile relative path
	tasks = append(tasks, task.FileTask{
		AbsPath: tasks[0].AbsPath,
		RelPath: "../escape.txt",
		Mode:    0o644,
		ModTime: tasks[0].ModTime,
	})

	result, err := Run(context.Background(), zaptest.NewLogger(t), tasks, Config{Codec: codec.Default()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	succeeded, failed := result.Counts()
	if succeeded != 1 || failed != 1 {
		t.Fatalf("Expected 1 success and 1 failure, got %d and %d", succeeded, failed)
	}
	for _, e := range result.Entries {
		if e.Task.RelPath == "../escape.txt" {
			if !errors.Is(e.Err, customErrors.ErrPathEncoding) {
				t.Errorf("Expected ErrPathEncoding, got %v", e.Err)
			}
		}
	}
}

// panicCodec stands in for a codec that panics instead of failing cleanly.
type panicCodec struct{}

func (panicCodec) Name() string { return "panic" }

func (panicCodec) Compress([]byte, int) ([]byte, error) { panic("compressor exploded") }

func (panicCodec) Decompress([]byte) ([]byte, error) { panic("decompressor exploded") }

func (panicCodec) NewWriter(io.Writer, int) (io.WriteCloser, error) { panic("writer exploded") }

func (panicCodec) NewReader(io.Reader) (io.ReadCloser, error) { panic("reader exploded") }

func TestRun_ContainsPanics(t *testing.T) {
	tasks := makeTasks(t, map[string][]byte{
		"a.txt": []byte("a"),
		"b.txt": []byte("b"),
	})

	result, err := Run(context.Background(), zaptest.NewLogger(t), tasks, Config{Codec: panicCodec{}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(result.Entries) != len(tasks) {
		t.Fatalf("Expected %d entries, got %d", len(tasks), len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.OK() {
			t.Fatalf("Expected %q to fail", e.Task.RelPath)
		}
		if !strings.Contains(e.Err.Error(), "panic") {
			t.Errorf("Expected a panic error for %q, got: %v", e.Task.RelPath, e.Err)
		}
	}
}

func TestRun_ValidatesArguments(t *testing.T) {
	logger := zaptest.NewLogger(t)

	var missingCtx context.Context
	if _, err := Run(missingCtx, logger, nil, Config{Codec: codec.Default()}); err == nil {
		t.Error("Expected an error for nil context, got nil")
	}
	if _, err := Run(context.Background(), nil, nil, Config{Codec: codec.Default()}); err == nil {
		t.Error("Expected an error for nil logger, got nil")
	}
	if _, err := Run(context.Background(), logger, nil, Config{}); err == nil {
		t.Error("Expected an error for nil codec, got nil")
	}
}

func TestRun_CompleteAtAnyWorkerCount(t *testing.T) {
	files := make(map[string][]byte, 12)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		files[name+".txt"] = bytes.Repeat([]byte(name), 64)
	}
	tasks := makeTasks(t, files)

	for _, workers := range []int{1, 4, 32} {
		result, err := Run(context.Background(), zaptest.NewLogger(t), tasks, Config{
			Codec:   codec.Default(),
			Workers: workers,
		})
		if err != nil {
			t.Fatalf("Expected no error with %d workers, got %v", workers, err)
		}

		// Exactly one outcome per task: nothing dropped, nothing duplicated
		if len(result.Entries) != len(tasks) {
			t.Fatalf("Expected %d entries with %d workers, got %d", len(tasks), workers, len(result.Entries))
		}
		seen := make(map[string]bool, len(result.Entries))
		for _, e := range result.Entries {
			if seen[e.Task.RelPath] {
				t.Errorf("Duplicate entry for %q with %d workers", e.Task.RelPath, workers)
			}
			seen[e.Task.RelPath] = true
			if !e.OK() {
				t.Errorf("Expected %q to succeed with %d workers, got %v", e.Task.RelPath, workers, e.Err)
			}
		}
	}
}

func TestConfig_WorkerDefault(t *testing.T) {
	if got := (Config{}).workers(); got <= 0 {
		t.Errorf("Expected a positive default worker count, got %d", got)
	}
	if got := (Config{Workers: 7}).workers(); got != 7 {
		t.Errorf("Expected 7 workers, got %d", got)
	}
}
