package main

import (
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	outputDir  string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	syncFlags := &syncFlags{}

	rootCmd := &cobra.Command{
		Use:   "binsync",
		Short: "Mirror GitHub release binaries into a local tree and a WebDAV share",
		Long: `binsync checks the latest GitHub release of every configured project,
downloads and unpacks the assets matching each file entry, records the new
versions in the configuration document and mirrors the output tree to WebDAV.

Running binsync without a subcommand is the same as "binsync sync".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, flags, syncFlags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to the configuration document (env BINSYNC_CONFIG)")
	pf.StringVarP(&flags.outputDir, "output", "o", "", "Local output root (env BINSYNC_OUTPUT_DIR)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	syncFlags.register(rootCmd)

	rootCmd.AddCommand(
		newSyncCmd(flags),
		newCheckCmd(flags),
		newUploadCmd(flags),
		newListCmd(flags),
		newHistoryCmd(flags),
		newVersionCmd(),
	)
	return rootCmd
}
