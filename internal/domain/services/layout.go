package services

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ochairo/binsync/internal/domain/entities"
)

var unsafeComponent = regexp.MustCompile(`[^a-zA-Z0-9._+-]+`)

// sanitizeComponent makes a single path component safe to use as a directory name
func sanitizeComponent(input string) string {
	sanitized := unsafeComponent.ReplaceAllString(input, "_")
	return strings.Trim(sanitized, ".")
}

// ResolveDestination expands a FileSpec destination into a path under outputRoot.
//
// An empty destination becomes "<target>/<arch>". The {arch} placeholder is
// replaced with the classified architecture of the selected asset, {name} with
// the target name and {tag} with the release tag. The result never escapes
// outputRoot.
func ResolveDestination(outputRoot string, target *entities.ReleaseTarget, spec entities.FileSpec, assetName, tag string) (string, error) {
	dest := spec.Destination
	if dest == "" {
		dest = entities.PlaceholderName + "/" + entities.PlaceholderArch
	}
	if spec.DelegatesToArch() {
		dest = strings.ReplaceAll(dest, entities.PlaceholderArch, ClassifyArch(assetName))
	}
	dest = strings.ReplaceAll(dest, entities.PlaceholderName, sanitizeComponent(target.Name))
	dest = strings.ReplaceAll(dest, entities.PlaceholderTag, sanitizeComponent(tag))

	if err := ValidateRelativePath(dest); err != nil {
		return "", err
	}
	return filepath.Join(outputRoot, filepath.FromSlash(dest)), nil
}

// ValidateRelativePath rejects absolute paths and paths leaving their root
func ValidateRelativePath(p string) error {
	if p == "" {
		return fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return fmt.Errorf("path must be relative: %s", p)
	}
	clean := filepath.Clean(filepath.FromSlash(p))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes output root: %s", p)
	}
	return nil
}
