package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"snipd/internal/daemon"
	"snipd/internal/extension"
	"snipd/internal/match"
	"snipd/internal/metrics"
	"snipd/internal/render"
	"snipd/internal/store"
)

var (
	renderDir      string
	renderNoRecord bool
)

var renderCmd = &cobra.Command{
	Use:   "render <trigger> [args...]",
	Short: "Render one match and print the result",
	Long: `Renders the match for trigger once, the way the daemon would, and
prints the expansion. Extra arguments fill the $1$, $2$, ... placeholders.
The pass is recorded in the history unless history is disabled or
--no-record is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := renderDir
		if dir == "" {
			dir = cfg.Render.MatchDir
		}
		set, err := match.LoadDir(dir)
		if err != nil {
			return err
		}
		m, ok := set.Find(args[0])
		if !ok {
			return fmt.Errorf("no match for trigger %q in %s", args[0], dir)
		}

		reg := extension.Builtin(extension.BuiltinOptions{
			Logger:       logger.WithComponent("extension"),
			ShellTimeout: cfg.ShellTimeout(),
		})
		expander := &daemon.Expander{
			Engine: render.NewEngine(reg, logger.WithComponent("render"), metrics.New()),
			Source: "cli",
			Logger: logger.WithComponent("render"),
		}
		if cfg.History.Enabled && !renderNoRecord {
			history, err := store.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer history.Close()
			expander.History = history
		}

		out, err := expander.Expand(cmd.Context(), args[0], m, args[1:])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderDir, "dir", "d", "", "match directory (default from configuration)")
	renderCmd.Flags().BoolVar(&renderNoRecord, "no-record", false, "do not record the pass in the history")
}
