package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ochairo/binsync/internal/external-adapters/webdav"
)

func newUploadCmd(flags *globalFlags) *cobra.Command {
	var remoteBase string
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Mirror the local output tree to WebDAV",
		Long: `upload copies every file under the output root to the WebDAV share without
checking for new releases. The server is read from WEBDAV_URL, WEBDAV_USERNAME
and WEBDAV_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			//nolint:errcheck // Best effort release of adapters
			defer a.Close()

			if remoteBase != "" {
				a.settings.RemoteBase = remoteBase
			}

			mirror, err := a.mirror()
			if err != nil {
				return err
			}
			if mirror == nil {
				return fmt.Errorf("%w: set WEBDAV_URL, WEBDAV_USERNAME and WEBDAV_PASSWORD", webdav.ErrNotConfigured)
			}

			report, mirrorErr := mirror.Mirror(cmd.Context(), a.settings.OutputDir, a.settings.RemoteBase)
			if report == nil {
				return mirrorErr
			}

			fmt.Fprintf(a.out, "Uploaded %s files to %s\n", humanize.Comma(int64(len(report.Uploaded))), a.settings.RemoteBase)
			for _, path := range sortedKeys(report.Failed) {
				fmt.Fprintf(a.out, "  failed  %s: %s\n", path, report.Failed[path])
			}
			if mirrorErr != nil {
				return errors.New("some files could not be uploaded")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&remoteBase, "remote-base", "", "Remote directory receiving the tree (env BINSYNC_REMOTE_BASE)")
	return cmd
}
