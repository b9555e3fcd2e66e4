// Copyright (c) 2025 A Bit of Help, Inc.

// Package task defines the data model moved through the archive build
// pipeline: discovered files, per-file outcomes, and the aggregated run
// result consumed by the archive writer and the reporter.
package task

import (
	"io/fs"
	"sort"
	"time"
)

// FileTask identifies one discovered file. It is created once per file by
// the scanner, is immutable, and is consumed by the pipeline.
type FileTask struct {
	// AbsPath is the file's path on disk
	AbsPath string

	// RelPath is the file's identity inside the archive: slash-separated,
	// relative to the scanned root, unique per run
	RelPath string

	// Size is the file's size at scan time, in bytes
	Size int64

	// Mode is the file's permission bits at scan time
	Mode fs.FileMode

	// ModTime is the file's modification time at scan time
	ModTime time.Time
}

// EntryMeta is the descriptor of one archive entry: everything the
// container needs besides the payload bytes.
type EntryMeta struct {
	// RelPath is the entry's path inside the container
	RelPath string

	// Size is the compressed payload length in bytes
	Size int64

	// OrigSize is the uncompressed file size in bytes
	OrigSize int64

	// Mode is the permission bits recorded for the entry
	Mode fs.FileMode

	// ModTime is the modification time recorded for the entry
	ModTime time.Time

	// Checksum is the CRC-32 over the descriptor fields
	Checksum uint32
}

// ProcessedEntry is the outcome of one FileTask. If Err is non-nil the
// Payload and Meta fields are unset and must not be used.
type ProcessedEntry struct {
	// Task is the file this outcome belongs to
	Task FileTask

	// Payload is the individually compressed file content
	Payload []byte

	// Meta is the archive-entry descriptor for the payload
	Meta EntryMeta

	// Err is the contained per-file failure, nil on success
	Err error
}

// OK reports whether the task succeeded.
func (e *ProcessedEntry) OK() bool {
	return e.Err == nil
}

// RunResult is the aggregated outcome of a pipeline run: exactly one
// ProcessedEntry per discovered file.
type RunResult struct {
	// Entries holds one outcome per task, sorted by relative path
	Entries []ProcessedEntry

	// Elapsed is the wall-clock duration of the pipeline run
	Elapsed time.Duration
}

// Sort orders the entries by relative path. The pipeline appends entries
// in completion order, which varies run to run; sorting here is what makes
// archives and reports reproducible.
func (r *RunResult) Sort() {
	sort.Slice(r.Entries, func(i, j int) bool {
		return r.Entries[i].Task.RelPath < r.Entries[j].Task.RelPath
	})
}

// Successes returns the entries that completed the whole chain.
func (r *RunResult) Successes() []ProcessedEntry {
	ok := make([]ProcessedEntry, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.OK() {
			ok = append(ok, e)
		}
	}
	return ok
}

// Counts returns how many entries succeeded and how many failed.
func (r *RunResult) Counts() (succeeded, failed int) {
	for _, e := range r.Entries {
		if e.OK() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// Bytes returns the total uncompressed and compressed byte counts across
// all successful entries.
func (r *RunResult) Bytes() (in, out int64) {
	for _, e := range r.Entries {
		if e.OK() {
			in += e.Meta.OrigSize
			out += e.Meta.Size
		}
	}
	return in, out
}

// TotalSize sums the sizes of the given tasks, the expected input volume
// of a run.
func TotalSize(tasks []FileTask) int64 {
	var total int64
	for _, t := range tasks {
		total += t.Size
	}
	return total
}
