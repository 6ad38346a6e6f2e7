package entities

// UpstreamRelease is the latest published release of a repository
type UpstreamRelease struct {
	Tag    string
	Assets []Asset
}

// Asset is a downloadable file attached to a release
type Asset struct {
	Name        string
	DownloadURL string
	Size        int64
	Digest      string // "sha256:<hex>" when reported by the API
}

// MatchResult is the outcome of scoring a release's assets against keywords
type MatchResult struct {
	Asset *Asset // nil when no asset scored above zero
	Score int
}

// Found reports whether an asset was selected
func (m MatchResult) Found() bool {
	return m.Asset != nil
}
