package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mysociety/appgtrack/internal/filter"
	"github.com/mysociety/appgtrack/internal/pipeline"
	"github.com/mysociety/appgtrack/internal/resolve"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full register pipeline for one dated snapshot",
	Long:  "Loads per-group record files, resolves every scraped name, applies the deny-list, persists the dated snapshot, and diffs it against the previous one.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		date, _ := cmd.Flags().GetString("date")
		dir, _ := cmd.Flags().GetString("dir")
		interactive, _ := cmd.Flags().GetBool("interactive")
		if dir == "" {
			dir = cfg.Register.GroupsDir
		}

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		matcher, err := loadMatcher()
		if err != nil {
			return err
		}
		deny, err := filter.LoadDenyList(cfg.Denylist.Path)
		if err != nil {
			return err
		}

		var provider resolve.DecisionProvider = resolve.SkipAll{}
		if interactive {
			provider = newPromptProvider(os.Stdin, os.Stdout)
		}

		groups, err := pipeline.LoadGroups(dir)
		if err != nil {
			return err
		}

		p := &pipeline.Pipeline{
			Store:    st,
			Matcher:  matcher,
			Provider: provider,
			Deny:     deny,
			DiffsDir: cfg.Register.DiffsDir,
		}
		summary, err := p.Run(ctx, date, groups)
		if err != nil {
			return err
		}

		printRunSummary(summary)
		return nil
	},
}

func printRunSummary(s pipeline.RunSummary) {
	fmt.Printf("Snapshot %s: %d groups\n", s.Date, s.Groups)
	fmt.Printf("Names: %d total, %d cached, %d auto-resolved, %d decided, %d pending, %d unmatched\n",
		s.Names.Total, s.Names.Cached, s.Names.Auto, s.Names.Decided, s.Names.Pending, s.Names.Unmatched)
	if len(s.Conflicts) > 0 {
		fmt.Printf("Identity conflicts (%d):\n", len(s.Conflicts))
		for _, name := range s.Conflicts {
			fmt.Printf("  %s\n", name)
		}
	}
	if s.Names.Pending > 0 {
		fmt.Printf("Pending names (%d):\n", s.Names.Pending)
		for _, name := range s.Names.PendingNames {
			fmt.Printf("  %s\n", name)
		}
	}
	fmt.Printf("Marked removed by deny-list: %d\n", s.MarkedRemoved)
	if s.Diff != nil {
		fmt.Printf("Diff vs %s: %d added, %d removed, %d changed\n",
			s.Diff.PreviousDate, len(s.Diff.Added), len(s.Diff.Removed), len(s.Diff.Changed))
	}
}

func init() {
	runCmd.Flags().String("date", "", "register date in YYMMDD form (required)")
	runCmd.Flags().String("dir", "", "directory of per-group JSON files (default from config)")
	runCmd.Flags().Bool("interactive", false, "prompt for uncertain name matches instead of leaving them pending")
	_ = runCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(runCmd)
}
