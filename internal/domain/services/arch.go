package services

import "strings"

// ArchDefault is returned when no alias matches a filename
const ArchDefault = "default"

// archAlias maps a canonical architecture key to the spellings found in release filenames
type archAlias struct {
	key     string
	aliases []string
}

// archTable is ordered: when a filename matches several groups the earlier entry wins.
// x64 precedes x86 so "x86_64" is never read as "x86".
var archTable = []archAlias{
	{key: "x64", aliases: []string{"x86_64", "amd64", "x64"}},
	{key: "arm64", aliases: []string{"aarch64", "arm64", "armv8"}},
	{key: "armhf", aliases: []string{"armhf", "armv7", "arm32", "armel", "armv6"}},
	{key: "x86", aliases: []string{"i386", "i686", "x86", "386", "win32"}},
	{key: "riscv", aliases: []string{"riscv64", "riscv"}},
	{key: "ppc64", aliases: []string{"ppc64le", "ppc64"}},
	{key: "s390", aliases: []string{"s390x", "s390"}},
}

// ClassifyArch normalizes the architecture substring of a filename into a canonical key
func ClassifyArch(filename string) string {
	lower := strings.ToLower(filename)
	for _, entry := range archTable {
		for _, alias := range entry.aliases {
			if strings.Contains(lower, alias) {
				return entry.key
			}
		}
	}
	return ArchDefault
}

// ArchKeys returns the canonical keys in table order, followed by ArchDefault
func ArchKeys() []string {
	keys := make([]string, 0, len(archTable)+1)
	for _, entry := range archTable {
		keys = append(keys, entry.key)
	}
	return append(keys, ArchDefault)
}
