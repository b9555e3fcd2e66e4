// Copyright (c) 2025 A Bit of Help, Inc.

//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package progress

import "golang.org/x/sys/unix"

// isTerminal probes fd with the termios read ioctl, which only succeeds on
// character devices attached to a terminal.
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), ioctlReadTermios)
	return err == nil
}
