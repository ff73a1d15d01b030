package ui

import "runtime"

// mainThreadID is the OS thread running package initialization, which is
// the process main thread. Locking here keeps the main goroutine on it.
var mainThreadID uint64

func init() {
	runtime.LockOSThread()
	mainThreadID = currentThreadID()
}

// onMainThread reports whether the caller runs on the main thread. On
// platforms without a thread id it always reports true.
func onMainThread() bool {
	if mainThreadID == 0 {
		return true
	}
	return currentThreadID() == mainThreadID
}
