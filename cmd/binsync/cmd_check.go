package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	orchestrators "github.com/ochairo/binsync/internal/domain-orchestrators"
)

func newCheckCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON bool
		only   []string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report which targets have a newer release",
		Long: `check fetches the latest release of every target and compares it with the
recorded version. Nothing is downloaded and the configuration is not changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			//nolint:errcheck // Best effort release of adapters
			defer a.Close()

			ctx := cmd.Context()
			targets, err := a.targetRepository().ListTargets(ctx)
			if err != nil {
				return err
			}

			orch, err := a.syncOrchestrator(false)
			if err != nil {
				return err
			}
			report, err := orch.Run(ctx, targets, orchestrators.RunOptions{
				DryRun:      true,
				Concurrency: a.settings.Concurrency,
				Only:        only,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(a.out, report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().StringSliceVar(&only, "only", nil, "Restrict the check to these target names")
	return cmd
}
