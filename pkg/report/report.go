// Copyright (c) 2025 A Bit of Help, Inc.

// Package report renders the end-of-run console output: one status line
// per file and a human-readable summary.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/abitofhelp/treepack/pkg/task"
	"github.com/dustin/go-humanize"
)

// Print writes one status line per entry, in entry order. Failed files are
// marked but their details stay in the log, keeping the listing scannable.
func Print(w io.Writer, result *task.RunResult) {
	fmt.Fprintln(w, "\nResults:")
	for _, e := range result.Entries {
		status := "OK"
		if !e.OK() {
			status = "ERR"
		}
		fmt.Fprintf(w, "%-60s [%s]\n", e.Task.RelPath, status)
	}
}

// Summary prints the closing summary of a compress run.
func Summary(w io.Writer, result *task.RunResult, inputFolder, outputFile string) {
	succeeded, failed := result.Counts()
	in, out := result.Bytes()

	fmt.Fprintf(w, "\nFolder %q compressed into %q\n", inputFolder, outputFile)

	fmt.Fprintf(w, "Files: %d archived", succeeded)
	if failed > 0 {
		fmt.Fprintf(w, ", %d failed", failed)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Bytes: %s in, %s out", humanize.Bytes(uint64(in)), humanize.Bytes(uint64(out)))
	if in > 0 && out > 0 {
		fmt.Fprintf(w, " (%.2f:1)", float64(in)/float64(out))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Elapsed: %s\n", FormatDuration(result.Elapsed))
}

// ExtractionSummary prints the closing summary of a decompress run.
func ExtractionSummary(w io.Writer, entries []task.EntryMeta, archivePath, outputFolder string, elapsed time.Duration) {
	var totalBytes int64
	for _, m := range entries {
		if m.OrigSize > 0 {
			totalBytes += m.OrigSize
		}
	}

	fmt.Fprintf(w, "Archive %q extracted into %q\n", archivePath, outputFolder)
	fmt.Fprintf(w, "Files: %d restored\n", len(entries))
	fmt.Fprintf(w, "Bytes: %s\n", humanize.Bytes(uint64(totalBytes)))
	fmt.Fprintf(w, "Elapsed: %s\n", FormatDuration(elapsed))
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds %dms", hours, minutes, seconds, milliseconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds %dms", minutes, seconds, milliseconds)
	} else if seconds > 0 {
		return fmt.Sprintf("%ds %dms", seconds, milliseconds)
	}
	return fmt.Sprintf("%dms", milliseconds)
}
