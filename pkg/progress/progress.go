// Copyright (c) 2025 A Bit of Help, Inc.

// Package progress provides thread-safe run counters and an optional live
// terminal renderer for long archive runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Counter tracks pipeline progress with thread-safe access methods. The
// totals are fixed once the input folder has been scanned; the remaining
// fields are updated concurrently by the workers.
type Counter struct {
	totalFiles uint64
	totalBytes uint64

	// Per-file outcomes
	Completed atomic.Uint64
	Failed    atomic.Uint64

	// BytesRead advances chunk by chunk as workers consume their files, so
	// the display tracks byte volume rather than file count
	BytesRead atomic.Uint64

	// BytesOut is the compressed size of all completed files
	BytesOut atomic.Uint64
}

// NewCounter creates a counter for a run over totalFiles files holding
// totalBytes of input.
func NewCounter(totalFiles int, totalBytes int64) *Counter {
	c := &Counter{}
	if totalFiles > 0 {
		c.totalFiles = uint64(totalFiles)
	}
	if totalBytes > 0 {
		c.totalBytes = uint64(totalBytes)
	}
	return c
}

// AddBytesRead advances the read counter by n.
func (c *Counter) AddBytesRead(n uint64) {
	c.BytesRead.Add(n)
}

// FileSucceeded records one successfully processed file and its compressed
// size.
func (c *Counter) FileSucceeded(bytesOut uint64) {
	c.Completed.Add(1)
	c.BytesOut.Add(bytesOut)
}

// FileFailed records one failed file.
func (c *Counter) FileFailed() {
	c.Failed.Add(1)
}

// TotalFiles returns the number of files in the run.
func (c *Counter) TotalFiles() uint64 {
	return c.totalFiles
}

// TotalBytes returns the expected input volume of the run.
func (c *Counter) TotalBytes() uint64 {
	return c.totalBytes
}

// Snapshot is a point-in-time copy of the counter values.
type Snapshot struct {
	TotalFiles uint64
	TotalBytes uint64
	Completed  uint64
	Failed     uint64
	BytesRead  uint64
	BytesOut   uint64
}

// Processed returns the number of files with a recorded outcome.
func (s Snapshot) Processed() uint64 {
	return s.Completed + s.Failed
}

// Snapshot returns a consistent-enough copy of the counters for display.
func (c *Counter) Snapshot() Snapshot {
	return Snapshot{
		TotalFiles: c.totalFiles,
		TotalBytes: c.totalBytes,
		Completed:  c.Completed.Load(),
		Failed:     c.Failed.Load(),
		BytesRead:  c.BytesRead.Load(),
		BytesOut:   c.BytesOut.Load(),
	}
}

// renderInterval is how often the live progress line is redrawn.
const renderInterval = 250 * time.Millisecond

// Renderer periodically redraws a single progress line on out. It is meant
// for interactive terminals; callers should gate construction on IsTerminal.
type Renderer struct {
	counter  *Counter
	out      io.Writer
	interval time.Duration
	start    time.Time
	lastLen  int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// StartRenderer begins redrawing progress for c on out until Stop is called.
func StartRenderer(c *Counter, out io.Writer) *Renderer {
	return startRenderer(c, out, renderInterval)
}

func startRenderer(c *Counter, out io.Writer, interval time.Duration) *Renderer {
	r := &Renderer{
		counter:  c,
		out:      out,
		interval: interval,
		start:    time.Now(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.loop()
	return r
}

// Stop draws a final progress line, terminates it with a newline, and waits
// for the render goroutine to exit. It is safe to call more than once.
func (r *Renderer) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Renderer) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.render()
		case <-r.stop:
			r.render()
			fmt.Fprintln(r.out)
			return
		}
	}
}

func (r *Renderer) render() {
	snap := r.counter.Snapshot()
	processed := snap.Processed()

	var b strings.Builder
	fmt.Fprintf(&b, "  [%s] %s %s/%s (%d%%)",
		clock(time.Since(r.start)),
		bar(snap.BytesRead, snap.TotalBytes),
		humanize.Bytes(snap.BytesRead), humanize.Bytes(snap.TotalBytes),
		percent(snap.BytesRead, snap.TotalBytes))
	fmt.Fprintf(&b, "  %d/%d files", processed, snap.TotalFiles)
	if snap.Failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", snap.Failed)
	}
	fmt.Fprintf(&b, "  %s out", humanize.Bytes(snap.BytesOut))

	// Pad with spaces so a shorter line fully overwrites the previous one.
	line := b.String()
	width := len(line)
	if width < r.lastLen {
		line += strings.Repeat(" ", r.lastLen-width)
	}
	r.lastLen = width

	fmt.Fprint(r.out, "\r"+line)
}

// bar renders a fixed-width completion bar.
func bar(done, total uint64) string {
	const width = 24

	filled := 0
	if total > 0 {
		filled = int(done * width / total)
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// percent is the integer completion percentage, clamped to 100.
func percent(done, total uint64) int {
	if total == 0 {
		return 0
	}
	p := int(done * 100 / total)
	if p > 100 {
		p = 100
	}
	return p
}

// clock formats an elapsed duration as mm:ss.
func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && isTerminal(f.Fd())
}
