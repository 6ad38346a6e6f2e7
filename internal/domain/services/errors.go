// Package services implements the pure decision logic of the release sync pipeline.
package services

import "errors"

// Recoverable failure kinds. Each is caught at the smallest enclosing scope
// (target or file) and downgraded to a warning.
var (
	ErrFetchFailed    = errors.New("fetch failed")
	ErrNoMatchFound   = errors.New("no matching asset")
	ErrDownloadFailed = errors.New("download failed")
	ErrExtractFailed  = errors.New("extract failed")
	ErrPersistFailed  = errors.New("persist failed")
	ErrUploadFailed   = errors.New("upload failed")
)

var recoverable = []error{
	ErrFetchFailed,
	ErrNoMatchFound,
	ErrDownloadFailed,
	ErrExtractFailed,
	ErrPersistFailed,
	ErrUploadFailed,
}

// IsRecoverable reports whether err belongs to the known failure kinds.
// Anything else aborts the run.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	for _, kind := range recoverable {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Kind returns the short name of the failure kind, or "unexpected"
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrFetchFailed):
		return "FetchFailed"
	case errors.Is(err, ErrNoMatchFound):
		return "NoMatchFound"
	case errors.Is(err, ErrDownloadFailed):
		return "DownloadFailed"
	case errors.Is(err, ErrExtractFailed):
		return "ExtractFailed"
	case errors.Is(err, ErrPersistFailed):
		return "PersistFailed"
	case errors.Is(err, ErrUploadFailed):
		return "UploadFailed"
	default:
		return "unexpected"
	}
}
