//go:build !linux && !windows

package detect

import (
	"context"
	"fmt"
	"runtime"
)

type unsupportedSource struct{}

func newPlatformSource(Options) Source { return unsupportedSource{} }

func (unsupportedSource) Initialize() error {
	return fmt.Errorf("%w: input capture is not supported on %s", ErrHookFailure, runtime.GOOS)
}

func (unsupportedSource) Eventloop(context.Context, Handler) error { return ErrNotInitialized }

func (unsupportedSource) Close() error { return nil }
