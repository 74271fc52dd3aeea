package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/internal/history"
)

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			store := history.NewStore(db)
			records, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(out, "%s  %s  %-7s  %d stages  %s\n",
					r.ID, r.CreatedAt, r.Status, r.Stages, truncate(r.Input, 40))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	return cmd
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
