package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mysociety/appgtrack/internal/filter"
	"github.com/mysociety/appgtrack/internal/model"
	"github.com/mysociety/appgtrack/internal/pipeline"
)

var filterCmd = &cobra.Command{
	Use:   "filter <date>",
	Short: "Apply the ineligible-person deny-list to a stored snapshot",
	Long:  "Marks every officer and member resolved to a deny-listed identifier as removed in the given snapshot, replacing it wholesale. Records are never deleted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		date := args[0]

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		deny, err := filter.LoadDenyList(cfg.Denylist.Path)
		if err != nil {
			return err
		}

		snap, err := st.Snapshot(ctx, date)
		if err != nil {
			return err
		}
		filtered, marked := filter.ApplyAll(snap.Groups, deny)
		if err := st.PutSnapshot(ctx, date, filtered); err != nil {
			return err
		}
		fmt.Printf("Snapshot %s: %d records marked removed (%d deny-listed identifiers)\n",
			date, marked, len(deny))
		return nil
	},
}

var blankCmd = &cobra.Command{
	Use:   "blank <slug>",
	Short: "Blank the membership list of one group file",
	Long:  "Resets a group's membership list to an explicit empty state with source method 'empty'. Used when a scraped membership list turns out to be wrong.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := args[0]
		dir := cfg.Register.GroupsDir

		g, err := pipeline.LoadGroup(filepath.Join(dir, slug+".json"))
		if err != nil {
			return err
		}
		n := g.BlankMembership()
		if err := pipeline.WriteGroups(dir, []model.Group{g}); err != nil {
			return err
		}
		fmt.Printf("Blanked membership for %s: removed %d members, source method set to empty\n", slug, n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(blankCmd)
}
