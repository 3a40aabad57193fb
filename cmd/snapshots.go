package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mysociety/appgtrack/internal/pipeline"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored register snapshot dates",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		dates, err := st.Dates(ctx)
		if err != nil {
			return err
		}
		if len(dates) == 0 {
			fmt.Fprintln(os.Stderr, "No snapshots stored.")
			return nil
		}
		for _, date := range dates {
			snap, err := st.Snapshot(ctx, date)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %d groups\n", date, len(snap.Groups))
		}
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load per-group record files into a dated snapshot",
	Long:  "Validates and stores the per-group JSON files as a dated snapshot without running name resolution. A snapshot already stored for that date is replaced wholesale.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		date, _ := cmd.Flags().GetString("date")
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Register.GroupsDir
		}

		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		groups, err := pipeline.LoadGroups(dir)
		if err != nil {
			return err
		}
		if err := st.PutSnapshot(ctx, date, groups); err != nil {
			return err
		}
		fmt.Printf("Stored snapshot %s with %d groups\n", date, len(groups))
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("date", "", "register date in YYMMDD form (required)")
	ingestCmd.Flags().String("dir", "", "directory of per-group JSON files (default from config)")
	_ = ingestCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(ingestCmd)
}
