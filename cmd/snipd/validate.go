package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"snipd/internal/extension"
	"snipd/internal/match"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check match files and the configuration",
	Long: `Loads every match file, checks it against the match file schema and
verifies that each variable names a known extension with a unique name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Render.MatchDir
		if len(args) > 0 {
			dir = args[0]
		}
		set, err := match.LoadDir(dir)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		reg := extension.Builtin(extension.BuiltinOptions{Logger: logger.WithComponent("extension")})
		if err := set.Check(reg); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %d triggers OK\n", dir, len(set.Files), len(set.Triggers()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
