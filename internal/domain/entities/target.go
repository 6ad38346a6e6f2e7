package entities

import "strings"

// ReleaseTarget is one tracked upstream project from the configuration document
type ReleaseTarget struct {
	Name    string
	Repo    string     // "owner/name"
	Version string     // Last committed tag, empty when never synced
	Files   []FileSpec // Processed in declaration order
}

// HasVersion reports whether a version was ever recorded for the target
func (t *ReleaseTarget) HasVersion() bool {
	return t.Version != ""
}

// FileSpec declares which local sub-path receives the asset matching a keyword set
type FileSpec struct {
	Keywords    []string
	Destination string // Relative to the output root, may contain {arch}, {name}, {tag}
}

// Placeholders understood in FileSpec.Destination
const (
	PlaceholderArch = "{arch}"
	PlaceholderName = "{name}"
	PlaceholderTag  = "{tag}"
)

// DelegatesToArch reports whether the destination is decided by the asset's architecture
func (f FileSpec) DelegatesToArch() bool {
	return f.Destination == "" || strings.Contains(f.Destination, PlaceholderArch)
}

// String renders the spec in the compact "k1,k2:destination" form
func (f FileSpec) String() string {
	return strings.Join(f.Keywords, ",") + ":" + f.Destination
}
