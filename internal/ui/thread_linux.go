//go:build linux

package ui

import "golang.org/x/sys/unix"

func currentThreadID() uint64 { return uint64(unix.Gettid()) }
