package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"snipd/internal/store"
)

var (
	historyTrigger string
	historyLimit   int
	historyStats   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent expansions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cfg.History.Enabled {
			return fmt.Errorf("history is disabled in %s", loader.Path())
		}
		s, err := store.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer s.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		if historyStats {
			stats, err := s.TriggerStats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "TRIGGER\tCOUNT\tFAILURES\tLAST")
			for _, st := range stats {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", st.Trigger, st.Count, st.Failures, st.Last.Format(time.DateTime))
			}
			return nil
		}

		entries, err := s.Recent(cmd.Context(), historyTrigger, historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "TIME\tTRIGGER\tRESULT\tDURATION\tSOURCE")
		for _, e := range entries {
			result := "ok"
			if !e.OK {
				result = "failed: " + e.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp.Format(time.DateTime), e.Trigger, result, e.Duration.Round(time.Microsecond), e.Source)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&historyTrigger, "trigger", "t", "", "only show this trigger")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show per-trigger totals instead")
}
