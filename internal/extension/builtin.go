package extension

import (
	"time"

	"snipd/internal/logging"
)

// BuiltinOptions tune the built-in extensions.
type BuiltinOptions struct {
	Logger       *logging.Logger
	ShellTimeout time.Duration
}

// Builtin returns a registry with every built-in extension.
func Builtin(opts BuiltinOptions) *Registry {
	log := opts.Logger
	if log == nil {
		log = logging.Component("extension")
	}
	r, err := NewRegistry(
		NewRandom(log),
		NewEcho(log),
		NewDate(log),
		NewShell(log, opts.ShellTimeout),
	)
	if err != nil {
		// Built-in names are distinct constants.
		panic(err)
	}
	return r
}
