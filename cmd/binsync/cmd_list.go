package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			//nolint:errcheck // Best effort release of adapters
			defer a.Close()

			repo := a.targetRepository()
			targets, err := repo.ListTargets(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Configured targets in %s (%d total):\n\n", repo.Path(), len(targets))
			for _, t := range targets {
				fmt.Fprintf(a.out, "  %-20s %s\n", t.Name, t.Repo)
				fmt.Fprintf(a.out, "  %-20s Version: %s\n", "", versionOrNone(t.Version))
				for _, spec := range t.Files {
					dest := spec.Destination
					if dest == "" {
						dest = "(by architecture)"
					}
					fmt.Fprintf(a.out, "  %-20s %s -> %s\n", "", strings.Join(spec.Keywords, ","), dest)
				}
				fmt.Fprintln(a.out)
			}
			return nil
		},
	}
}
