package entities

// ArchiveKind selects how a downloaded asset is materialized
type ArchiveKind int

// Closed set of materialization strategies
const (
	ArchivePassthrough ArchiveKind = iota // copied verbatim
	ArchiveZip
	ArchiveTar // tar family, see Compression
)

// String returns the string representation of the archive kind
func (k ArchiveKind) String() string {
	switch k {
	case ArchiveZip:
		return "zip"
	case ArchiveTar:
		return "tar"
	case ArchivePassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Compression is the outer compression layer of a tar family archive
type Compression int

// Supported tar compressions
const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionXz
)

// ArchiveFormat is the result of classifying an asset filename
type ArchiveFormat struct {
	Kind        ArchiveKind
	Compression Compression // Only meaningful for ArchiveTar
}
