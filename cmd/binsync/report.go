package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/ochairo/binsync/internal/domain/entities"
)

func printReport(w io.Writer, report *entities.RunReport) {
	fmt.Fprintf(w, "Run %s\n\n", report.RunID)
	for _, o := range report.Outcomes {
		fmt.Fprintf(w, "  %-20s %-18s %s -> %s\n",
			o.Target, o.State, versionOrNone(o.PreviousVersion), versionOrNone(o.NewVersion))
		for _, f := range o.Failures {
			fmt.Fprintf(w, "  %-20s ! %s\n", "", f)
		}
	}

	fmt.Fprintf(w, "\n%d committed, %d up to date, %d update available, %d partial, %d no data\n",
		report.Committed,
		report.CountState(entities.StateUpToDate),
		report.CountState(entities.StateUpdateAvailable),
		report.CountState(entities.StatePartialFailure),
		report.CountState(entities.StateStaleNoData))

	switch {
	case report.Synced && report.Upload != nil:
		fmt.Fprintf(w, "Remote sync: %d uploaded, %d failed\n", len(report.Upload.Uploaded), len(report.Upload.Failed))
	case report.SyncSkipReason != "":
		fmt.Fprintf(w, "Remote sync skipped: %s\n", report.SyncSkipReason)
	}
}

func versionOrNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
