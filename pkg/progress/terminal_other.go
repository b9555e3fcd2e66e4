// Copyright (c) 2025 A Bit of Help, Inc.

//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package progress

// isTerminal is conservative on platforms without termios support.
func isTerminal(uintptr) bool {
	return false
}
