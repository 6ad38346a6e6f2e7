package services

// UpdateDecision is the binary outcome of comparing a recorded version with upstream
type UpdateDecision int

// Possible decisions
const (
	UpToDate UpdateDecision = iota
	UpdateAvailable
)

// String returns the string representation of the decision
func (d UpdateDecision) String() string {
	if d == UpdateAvailable {
		return "update-available"
	}
	return "up-to-date"
}

// Decide compares the recorded version with the latest upstream tag.
// Comparison is exact on the raw token; no semantic version parsing, so a
// rollback upstream is also treated as an update.
func Decide(recorded, latestTag string) UpdateDecision {
	if recorded == "" {
		return UpdateAvailable
	}
	if recorded == latestTag {
		return UpToDate
	}
	return UpdateAvailable
}
