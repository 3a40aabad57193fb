package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mysociety/appgtrack/internal/diff"
)

var diffCmd = &cobra.Command{
	Use:   "diff [previous] [current]",
	Short: "Compare two register snapshots",
	Long:  "Computes the structured delta between two dated snapshots. With no arguments, compares the latest snapshot against its predecessor.",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var prevDate, currDate string
		switch len(args) {
		case 2:
			prevDate, currDate = args[0], args[1]
		case 1:
			currDate = args[0]
		default:
			latest, err := st.Latest(ctx)
			if err != nil {
				return err
			}
			currDate = latest.Date
		}
		if prevDate == "" {
			prevDate, err = st.Previous(ctx, currDate)
			if err != nil {
				return err
			}
			if prevDate == "" {
				return fmt.Errorf("snapshot %s is the earliest, nothing to compare against", currDate)
			}
		}

		previous, err := st.Snapshot(ctx, prevDate)
		if err != nil {
			return err
		}
		current, err := st.Snapshot(ctx, currDate)
		if err != nil {
			return err
		}

		report := diff.Compare(previous, current)

		if markdown, _ := cmd.Flags().GetBool("markdown"); markdown {
			fmt.Print(report.Markdown())
			return nil
		}
		if out, _ := cmd.Flags().GetString("save"); out != "" {
			if err := report.Save(out); err != nil {
				return err
			}
		}

		printDiffSummary(report)
		return nil
	},
}

func printDiffSummary(r diff.Report) {
	fmt.Printf("Register changes %s → %s\n", r.PreviousDate, r.CurrentDate)
	if r.Empty() {
		fmt.Println("No changes.")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Slug", "Change", "Detail"})
	for _, g := range r.Added {
		tw.AppendRow(table.Row{g.Slug, "added", g.ShortTitle})
	}
	for _, g := range r.Removed {
		tw.AppendRow(table.Row{g.Slug, "removed", g.ShortTitle})
	}
	for _, gd := range r.Changed {
		detail := fmt.Sprintf("%d field, %d officer, %d member, %d benefit changes",
			len(gd.Fields), len(gd.OfficerChanges), len(gd.MemberChanges), len(gd.BenefitChanges))
		tw.AppendRow(table.Row{gd.Slug, "updated", detail})
	}
	tw.Render()
}

func init() {
	diffCmd.Flags().Bool("markdown", false, "print the full report as markdown")
	diffCmd.Flags().String("save", "", "directory to write the JSON report into")
	rootCmd.AddCommand(diffCmd)
}
