package daemon

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snipd/internal/extension"
	"snipd/internal/logging"
	"snipd/internal/match"
	"snipd/internal/render"
	"snipd/internal/store"
)

func TestExpanderTagsSource(t *testing.T) {
	reg, err := extension.NewRegistry(extension.NewEcho(nil), broken{})
	require.NoError(t, err)
	history, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer history.Close()

	var failed []string
	e := &Expander{
		Engine:    render.NewEngine(reg, logging.Component("render"), nil),
		History:   history,
		Source:    "cli",
		Logger:    logging.Component("test"),
		OnFailure: func(trigger string, _ error) { failed = append(failed, trigger) },
	}
	ok := match.Match{Trigger: ":ok", Replace: "fine", Source: "base.yml"}
	bad := match.Match{Trigger: ":bad", Replace: "{{x}}", Vars: []render.Variable{{Name: "x", Type: "broken"}}, Source: "base.yml"}

	ctx := context.Background()
	out, err := e.Expand(ctx, ":ok", ok, nil)
	require.NoError(t, err)
	assert.Equal(t, "fine", out)
	_, err = e.Expand(ctx, ":bad", bad, nil)
	require.Error(t, err)
	assert.Equal(t, []string{":bad"}, failed)

	entries, err := history.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cli:base.yml", entries[1].Source)
	assert.Equal(t, ":ok", entries[1].Trigger)
	assert.False(t, entries[0].OK)
}

func TestExpanderWithoutHistory(t *testing.T) {
	reg, err := extension.NewRegistry(extension.NewEcho(nil))
	require.NoError(t, err)
	e := &Expander{Engine: render.NewEngine(reg, logging.Component("render"), nil), Logger: logging.Component("test")}

	out, err := e.Expand(context.Background(), ":ok", match.Match{Trigger: ":ok", Replace: "fine"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "fine", out)
}
