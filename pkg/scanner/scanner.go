// Copyright (c) 2025 A Bit of Help, Inc.

// Package scanner discovers the regular files beneath an input folder and
// turns them into pipeline tasks.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/abitofhelp/treepack/pkg/task"
	"go.uber.org/zap"
)

// Scan walks root and returns one task per regular file, in lexical walk
// order. Directories, symlinks, and other non-regular entries are skipped.
// Unreadable entries below the root are skipped with a warning rather than
// aborting the walk; only a missing or unreadable root is fatal.
func Scan(logger *zap.Logger, root string) ([]task.FileTask, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input folder %q: %v", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %q is not a folder", root)
	}

	var tasks []task.FileTask
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path for %q: %v", path, err)
		}

		ft := task.FileTask{
			AbsPath: path,
			RelPath: filepath.ToSlash(rel),
		}
		// A file that vanishes between the walk and here still gets a task;
		// the pipeline will surface the open failure against its path.
		if fi, infoErr := d.Info(); infoErr == nil {
			ft.Size = fi.Size()
			ft.Mode = fi.Mode()
			ft.ModTime = fi.ModTime()
		} else {
			logger.Warn("Could not stat file", zap.String("path", path), zap.Error(infoErr))
		}

		tasks = append(tasks, ft)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan %q: %v", root, walkErr)
	}

	logger.Debug("Scan complete",
		zap.String("root", root),
		zap.Int("file_count", len(tasks)),
		zap.Int64("total_bytes", task.TotalSize(tasks)))
	return tasks, nil
}
