package daemon

import (
	"context"
	"time"

	"snipd/internal/logging"
	"snipd/internal/match"
	"snipd/internal/render"
	"snipd/internal/store"
)

// Expander renders matches and records every pass in the history store.
// The daemon and the render command share it.
type Expander struct {
	Engine *render.Engine

	// History, when set, receives one entry per pass.
	History *store.Store

	// Source tags the history entries, e.g. "cli". Empty uses the match
	// file.
	Source string

	Logger *logging.Logger

	// OnFailure is called after a failed render.
	OnFailure func(trigger string, err error)
}

// Expand renders m for trigger with args.
func (e *Expander) Expand(ctx context.Context, trigger string, m match.Match, args []string) (string, error) {
	start := time.Now()
	out, err := e.Engine.Render(ctx, m.Template(), args)
	entry := &store.Expansion{
		Timestamp: start,
		Trigger:   trigger,
		Source:    m.Source,
		OK:        err == nil,
		OutputLen: len(out),
		Variables: len(m.Vars),
		Duration:  time.Since(start),
	}
	if e.Source != "" {
		entry.Source = e.Source + ":" + m.Source
	}
	if err != nil {
		entry.Error = err.Error()
		e.Logger.Warn("expansion failed", "trigger", trigger, "error", err)
		if e.OnFailure != nil {
			e.OnFailure(trigger, err)
		}
	}

	if e.History != nil {
		if _, herr := e.History.Record(ctx, entry); herr != nil {
			e.Logger.Warn("record expansion", "trigger", trigger, "error", herr)
		}
	}
	return out, err
}
