// Copyright (c) 2025 A Bit of Help, Inc.

//go:build linux

package progress

import "golang.org/x/sys/unix"

const ioctlReadTermios = unix.TCGETS
