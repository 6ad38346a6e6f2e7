// Package entities defines core domain models and data structures.
package entities

// TargetState is a node of the per-target sync state machine
type TargetState string

// Per-target states. UP_TO_DATE, STALE_NO_DATA, VERSION_COMMITTED and
// PARTIAL_FAILURE are terminal.
const (
	StateCheck            TargetState = "CHECK"
	StateUpToDate         TargetState = "UP_TO_DATE"
	StateStaleNoData      TargetState = "STALE_NO_DATA"
	StateUpdateAvailable  TargetState = "UPDATE_AVAILABLE"
	StateVersionCommitted TargetState = "VERSION_COMMITTED"
	StatePartialFailure   TargetState = "PARTIAL_FAILURE"
)

// IsTerminal reports whether no further transition is possible
func (s TargetState) IsTerminal() bool {
	switch s {
	case StateUpToDate, StateStaleNoData, StateVersionCommitted, StatePartialFailure:
		return true
	default:
		return false
	}
}

// SyncOutcome is the per-target result of a run
type SyncOutcome struct {
	Target          string      `json:"target"`
	Repo            string      `json:"repo"`
	PreviousVersion string      `json:"previous_version,omitempty"`
	NewVersion      string      `json:"new_version,omitempty"`
	Updated         bool        `json:"updated"`
	State           TargetState `json:"state"`
	FilesWritten    []string    `json:"files_written,omitempty"`
	Failures        []string    `json:"failures,omitempty"`
}

// UploadReport summarizes a mirror of the output tree to the remote store
type UploadReport struct {
	Uploaded []string          `json:"uploaded"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// RunReport aggregates every outcome of one pipeline run
type RunReport struct {
	RunID           string        `json:"run_id"`
	Outcomes        []SyncOutcome `json:"outcomes"`
	Committed       int           `json:"committed"`
	ConfigRewritten bool          `json:"config_rewritten"`
	Synced          bool          `json:"synced"`
	SyncSkipReason  string        `json:"sync_skip_reason,omitempty"`
	Upload          *UploadReport `json:"upload,omitempty"`
}

// CountState returns how many outcomes ended in the given state
func (r *RunReport) CountState(state TargetState) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}
