//go:build !linux && !windows

package ui

func currentThreadID() uint64 { return 0 }
