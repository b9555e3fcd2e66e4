// Copyright (c) 2025 A Bit of Help, Inc.

package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
)

func writeTestFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func TestScan_FindsNestedFiles(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a.txt"), []byte("alpha"))
	writeTestFile(t, filepath.Join(root, "sub", "b.txt"), []byte("beta"))
	writeTestFile(t, filepath.Join(root, "sub", "deep", "c.bin"), []byte("gamma!"))
	if err := os.MkdirAll(filepath.Join(root, "empty_dir"), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	tasks, err := Scan(zaptest.NewLogger(t), root)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Three regular files, directories excluded
	if len(tasks) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(tasks))
	}

	// Relative paths are slash-separated and rooted at the input folder
	wantRel := map[string]int64{
		"a.txt":          5,
		"sub/b.txt":      4,
		"sub/deep/c.bin": 6,
	}
	for _, ft := range tasks {
		wantSize, ok := wantRel[ft.RelPath]
		if !ok {
			t.Errorf("Unexpected task path %q", ft.RelPath)
			continue
		}
		if ft.Size != wantSize {
			t.Errorf("Expected size %d for %q, got %d", wantSize, ft.RelPath, ft.Size)
		}
		if !filepath.IsAbs(ft.AbsPath) {
			t.Errorf("Expected absolute path, got %q", ft.AbsPath)
		}
		if ft.ModTime.IsZero() {
			t.Errorf("Expected a modification time for %q", ft.RelPath)
		}
		if ft.Mode.Perm() == 0 {
			t.Errorf("Expected permission bits for %q", ft.RelPath)
		}
	}
}

func TestScan_WalkOrderIsDeterministic(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "b.txt"), []byte("b"))
	writeTestFile(t, filepath.Join(root, "a.txt"), []byte("a"))
	writeTestFile(t, filepath.Join(root, "c", "d.txt"), []byte("d"))

	first, err := Scan(zaptest.NewLogger(t), root)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := Scan(zaptest.NewLogger(t), root)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Expected identical task counts, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].RelPath != second[i].RelPath {
			t.Errorf("Expected identical order at %d, got %q and %q", i, first[i].RelPath, second[i].RelPath)
		}
	}
}

func TestScan_EmptyFolder(t *testing.T) {
	tasks, err := Scan(zaptest.NewLogger(t), t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected no tasks, got %d", len(tasks))
	}
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(zaptest.NewLogger(t), filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Error("Expected an error for a missing folder, got nil")
	}
}

func TestScan_RootIsFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plain.txt")
	writeTestFile(t, path, []byte("not a folder"))

	_, err := Scan(zaptest.NewLogger(t), path)
	if err == nil {
		t.Error("Expected an error for a non-folder input, got nil")
	}
}

func TestScan_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "real.txt"), []byte("real"))

	// Symlinks to files and folders are not archived and not followed
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("Symlinks not supported here: %v", err)
	}
	outside := t.TempDir()
	writeTestFile(t, filepath.Join(outside, "outside.txt"), []byte("outside"))
	if err := os.Symlink(outside, filepath.Join(root, "linked_dir")); err != nil {
		t.Skipf("Symlinks not supported here: %v", err)
	}

	tasks, err := Scan(zaptest.NewLogger(t), root)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	if tasks[0].RelPath != "real.txt" {
		t.Errorf("Expected real.txt, got %q", tasks[0].RelPath)
	}
}
