package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		limit  int
		target string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded sync runs",
		Example: `  binsync history
  binsync history --target rclone --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			//nolint:errcheck // Best effort release of adapters
			defer a.Close()

			store, err := a.history()
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("run history is disabled (BINSYNC_HISTORY_DB is empty)")
			}

			ctx := cmd.Context()
			if target != "" {
				records, err := store.TargetHistory(ctx, target, limit)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintf(a.out, "No recorded runs for %s\n", target)
					return nil
				}
				for _, r := range records {
					fmt.Fprintf(a.out, "%-14s %-18s %s -> %s  (%s)\n",
						humanize.Time(r.RecordedAt), r.State,
						versionOrNone(r.PreviousVersion), versionOrNone(r.NewVersion), shortID(r.RunID))
					for _, f := range r.Failures {
						fmt.Fprintf(a.out, "    %s\n", f)
					}
				}
				return nil
			}

			runs, err := store.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(a.out, "No recorded runs")
				return nil
			}
			for _, r := range runs {
				sync := "synced"
				if !r.Synced {
					sync = "not synced (" + r.SyncSkipReason + ")"
				}
				fmt.Fprintf(a.out, "%s  %s  %d targets, %d committed, %s\n",
					shortID(r.RunID), humanize.Time(r.RecordedAt), len(r.Outcomes), r.Committed, sync)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries to show")
	cmd.Flags().StringVar(&target, "target", "", "Show the history of one target")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
