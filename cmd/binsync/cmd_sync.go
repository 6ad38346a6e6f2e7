package main

import (
	"github.com/spf13/cobra"

	orchestrators "github.com/ochairo/binsync/internal/domain-orchestrators"
)

type syncFlags struct {
	dryRun      bool
	forceSync   bool
	noSync      bool
	only        []string
	concurrency int
}

func (f *syncFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.dryRun, "dry-run", false, "Only report available updates")
	fs.BoolVar(&f.forceSync, "force-sync", false, "Mirror to WebDAV even when nothing was committed")
	fs.BoolVar(&f.noSync, "no-sync", false, "Download and commit versions without mirroring")
	fs.StringSliceVar(&f.only, "only", nil, "Restrict the run to these target names")
	fs.IntVarP(&f.concurrency, "concurrency", "j", 0, "Targets processed at once (env BINSYNC_CONCURRENCY)")
}

func newSyncCmd(flags *globalFlags) *cobra.Command {
	sf := &syncFlags{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download new releases, record versions and mirror to WebDAV",
		Example: `  binsync sync
  binsync sync --no-sync --only rclone,ripgrep
  binsync sync --force-sync -j 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, flags, sf)
		},
	}
	sf.register(cmd)
	return cmd
}

func runSync(cmd *cobra.Command, flags *globalFlags, sf *syncFlags) error {
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

	orch, err := a.syncOrchestrator(!sf.dryRun && !sf.noSync)
	if err != nil {
		return err
	}

	concurrency := a.settings.Concurrency
	if sf.concurrency > 0 {
		concurrency = sf.concurrency
	}

	report, runErr := orch.Run(ctx, targets, orchestrators.RunOptions{
		DryRun:      sf.dryRun,
		ForceSync:   sf.forceSync,
		SkipSync:    sf.noSync,
		Concurrency: concurrency,
		Only:        sf.only,
	})
	if report != nil && len(report.Outcomes) > 0 {
		printReport(a.out, report)
	}
	return runErr
}
