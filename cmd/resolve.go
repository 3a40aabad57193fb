package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mysociety/appgtrack/internal/pipeline"
	"github.com/mysociety/appgtrack/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve scraped names in the group files against the roster",
	Long:  "Runs reconciliation over every officer and member name in the per-group files, writing resolved identifiers back. Cached decisions are reused; uncertain names are prompted for (or left pending with --batch).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		dir, _ := cmd.Flags().GetString("dir")
		batch, _ := cmd.Flags().GetBool("batch")
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

		var provider resolve.DecisionProvider = newPromptProvider(os.Stdin, os.Stdout)
		if batch {
			provider = resolve.SkipAll{}
		}
		session := resolve.NewSession(matcher, st, provider)

		groups, err := pipeline.LoadGroups(dir)
		if err != nil {
			return err
		}

		var conflicts []string
		for i := range groups {
			names, err := pipeline.ResolveGroup(ctx, session, &groups[i])
			if err != nil {
				return err
			}
			conflicts = append(conflicts, names...)
		}

		if err := pipeline.WriteGroups(dir, groups); err != nil {
			return err
		}

		s := session.Summary()
		fmt.Printf("Resolved %d names: %d cached, %d auto, %d decided, %d unmatched, %d pending, %d conflicts\n",
			s.Total, s.Cached, s.Auto, s.Decided, s.Unmatched, s.Pending, len(conflicts))
		for _, name := range conflicts {
			fmt.Printf("  conflict: %s\n", name)
		}
		for _, name := range s.PendingNames {
			fmt.Printf("  pending: %s\n", name)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().String("dir", "", "directory of per-group JSON files (default from config)")
	resolveCmd.Flags().Bool("batch", false, "never prompt; leave uncertain names pending")
	rootCmd.AddCommand(resolveCmd)
}
