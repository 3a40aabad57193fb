package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "List the persisted name reconciliation decisions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		decisions, err := st.Decisions(ctx)
		if err != nil {
			return err
		}
		if len(decisions) == 0 {
			fmt.Fprintln(os.Stderr, "No decisions cached.")
			return nil
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Raw name", "Outcome", "Person", "Score", "Decided by", "When"})
		for _, d := range decisions {
			tw.AppendRow(table.Row{
				d.Raw,
				string(d.Outcome),
				d.PersonID,
				fmt.Sprintf("%.3f", d.Score),
				d.DecidedBy,
				d.DecidedAt.Format("2006-01-02"),
			})
		}
		tw.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decisionsCmd)
}
