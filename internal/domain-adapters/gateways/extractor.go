package gateways

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/ochairo/binsync/internal/domain/entities"
	"github.com/ochairo/binsync/internal/domain/interfaces"
)

// maxEntrySize caps a single extracted file (decompression bomb guard)
const maxEntrySize int64 = 4 << 30

// tarSuffixes is checked in order, longest suffixes first
var tarSuffixes = []struct {
	suffix      string
	compression entities.Compression
}{
	{".tar.gz", entities.CompressionGzip},
	{".tar.bz2", entities.CompressionBzip2},
	{".tar.xz", entities.CompressionXz},
	{".tgz", entities.CompressionGzip},
	{".tbz2", entities.CompressionBzip2},
	{".tbz", entities.CompressionBzip2},
	{".txz", entities.CompressionXz},
	{".tar", entities.CompressionNone},
	// bare compressed files are treated as compressed tarballs
	{".gz", entities.CompressionGzip},
	{".bz2", entities.CompressionBzip2},
	{".xz", entities.CompressionXz},
}

// DetectArchiveFormat classifies an asset by its filename extension
func DetectArchiveFormat(name string) entities.ArchiveFormat {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".zip") {
		return entities.ArchiveFormat{Kind: entities.ArchiveZip}
	}
	for _, s := range tarSuffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return entities.ArchiveFormat{Kind: entities.ArchiveTar, Compression: s.compression}
		}
	}
	return entities.ArchiveFormat{Kind: entities.ArchivePassthrough}
}

// Extractor handles archive extraction
type Extractor struct {
	logger       interfaces.Logger
	maxEntrySize int64
}

// NewExtractor creates a new extractor
func NewExtractor(logger interfaces.Logger) *Extractor {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Extractor{
		logger:       logger,
		maxEntrySize: maxEntrySize,
	}
}

type pendingSymlink struct {
	target   string
	linkname string
}

// ExtractTar extracts a tar archive with the given outer compression into destDir
func (e *Extractor) ExtractTar(archivePath string, compression entities.Compression, destDir string) ([]string, error) {
	//nolint:gosec // G304: archivePath is the staged download
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	var r io.Reader
	switch compression {
	case entities.CompressionGzip:
		gzr, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		//nolint:errcheck // Defer close on gzip reader
		defer gzr.Close()
		r = gzr
	case entities.CompressionBzip2:
		r = bzip2.NewReader(file)
	case entities.CompressionXz:
		xzr, err := xz.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	default:
		r = file
	}

	root, err := realRoot(destDir)
	if err != nil {
		return nil, err
	}

	tr := tar.NewReader(r)
	var written []string
	var symlinks []pendingSymlink

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("tar read error: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return written, err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := makeDir(root, target); err != nil {
				return written, err
			}

		case tar.TypeReg:
			//nolint:gosec // G115: tar header mode fits in FileMode
			if err := e.writeFile(root, target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return written, err
			}
			written = append(written, target)

		case tar.TypeLink:
			if err := e.copyHardLink(root, destDir, target, header.Linkname); err != nil {
				return written, err
			}
			written = append(written, target)

		case tar.TypeSymlink:
			symlinks = append(symlinks, pendingSymlink{target: target, linkname: header.Linkname})

		default:
			e.logger.Warn("Ignoring unsupported tar entry",
				interfaces.F("type", string(header.Typeflag)),
				interfaces.F("entry", header.Name))
		}
	}

	written = append(written, e.createSymlinks(root, destDir, symlinks)...)
	sort.Strings(written)
	return written, nil
}

// ExtractZip extracts a zip archive into destDir
func (e *Extractor) ExtractZip(archivePath, destDir string) ([]string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	//nolint:errcheck // Defer close on zip reader
	defer zr.Close()

	root, err := realRoot(destDir)
	if err != nil {
		return nil, err
	}

	var written []string
	var symlinks []pendingSymlink

	for _, f := range zr.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return written, err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := makeDir(root, target); err != nil {
				return written, err
			}

		case mode&os.ModeSymlink != 0:
			linkname, err := readZipEntry(f, 4096)
			if err != nil {
				return written, err
			}
			symlinks = append(symlinks, pendingSymlink{target: target, linkname: linkname})

		default:
			rc, err := f.Open()
			if err != nil {
				return written, fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
			}
			perm := mode.Perm()
			if perm == 0 {
				perm = 0644
			}
			err = e.writeFile(root, target, rc, perm)
			_ = rc.Close()
			if err != nil {
				return written, err
			}
			written = append(written, target)
		}
	}

	written = append(written, e.createSymlinks(root, destDir, symlinks)...)
	sort.Strings(written)
	return written, nil
}

// CopyFile copies src byte-for-byte to destDir/name, overwriting any existing file
func (e *Extractor) CopyFile(src, destDir, name string) (string, error) {
	root, err := realRoot(destDir)
	if err != nil {
		return "", err
	}

	//nolint:gosec // G304: src is the staged download
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open staged file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	target, err := safeJoin(destDir, name)
	if err != nil {
		return "", err
	}
	if target == filepath.Clean(destDir) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	if err := e.writeFile(root, target, in, 0755); err != nil {
		return "", err
	}
	return target, nil
}

// writeFile writes r to target, replacing whatever was there before. root is
// the resolved destination the parent directory must stay in.
func (e *Extractor) writeFile(root, target string, r io.Reader, perm os.FileMode) error {
	if err := makeDir(root, filepath.Dir(target)); err != nil {
		return err
	}
	// Never write through a symlink left by a previous release
	if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("failed to replace symlink %s: %w", target, err)
		}
	}

	//nolint:gosec // G304: target validated by safeJoin
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(out, io.LimitReader(r, e.maxEntrySize+1))
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if n > e.maxEntrySize {
		_ = out.Close()
		return fmt.Errorf("file %s exceeds %d bytes", filepath.Base(target), e.maxEntrySize)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	// OpenFile keeps the old mode of an existing file
	if err := os.Chmod(target, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	return nil
}

// createSymlinks runs after all regular files exist. Links pointing outside
// destDir are skipped, as are links that cannot be created. Links are checked
// against the tree on disk, including links created earlier in the pass.
func (e *Extractor) createSymlinks(root, destDir string, links []pendingSymlink) []string {
	var created []string
	for _, link := range links {
		if !e.symlinkAllowed(root, destDir, link) {
			e.logger.Warn("Skipping symlink outside destination",
				interfaces.F("link", link.target),
				interfaces.F("target", link.linkname))
			continue
		}
		if err := makeDir(root, filepath.Dir(link.target)); err != nil {
			e.logger.Warn("Failed to create directory for symlink", interfaces.F("link", link.target), interfaces.F("error", err))
			continue
		}
		_ = os.Remove(link.target)
		if err := os.Symlink(link.linkname, link.target); err != nil {
			e.logger.Warn("Failed to create symlink",
				interfaces.F("link", link.target),
				interfaces.F("target", link.linkname),
				interfaces.F("error", err))
			continue
		}
		created = append(created, link.target)
	}
	return created
}

func (e *Extractor) symlinkAllowed(root, destDir string, link pendingSymlink) bool {
	if filepath.IsAbs(link.linkname) {
		return false
	}
	if !within(destDir, filepath.Join(filepath.Dir(link.target), link.linkname)) {
		return false
	}
	// Unclean on purpose: ".." must apply after earlier links are followed
	resolved, err := resolvePath(filepath.Dir(link.target) + string(os.PathSeparator) + link.linkname)
	if err != nil || !within(root, resolved) {
		return false
	}
	parent, err := resolvePath(filepath.Dir(link.target))
	return err == nil && within(root, parent)
}

// copyHardLink materializes a hard link entry as a copy of an already
// extracted regular file. Tar hard link names are relative to the archive root.
func (e *Extractor) copyHardLink(root, destDir, target, linkname string) error {
	src, err := safeJoin(destDir, linkname)
	if err != nil {
		return err
	}
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("hard link %s: target %s not extracted: %w", filepath.Base(target), linkname, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("hard link %s: target %s is not a regular file", filepath.Base(target), linkname)
	}
	if resolved, err := resolvePath(src); err != nil || !within(root, resolved) {
		return fmt.Errorf("hard link %s: target %s escapes destination", filepath.Base(target), linkname)
	}
	if filepath.Clean(src) == filepath.Clean(target) {
		return nil
	}

	//nolint:gosec // G304: src validated above
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open hard link target: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()
	return e.writeFile(root, target, in, info.Mode().Perm())
}

// realRoot creates destDir and returns its path with every symlink resolved
func realRoot(destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}
	root, err := filepath.EvalSymlinks(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	return root, nil
}

// makeDir creates dir after checking that, with symlinks on disk followed,
// it stays inside root
func makeDir(root, dir string) error {
	resolved, err := resolvePath(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if !within(root, resolved) {
		return fmt.Errorf("path %s resolves outside the destination", dir)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// resolvePath follows symlinks through the longest existing prefix of p and
// appends the missing remainder lexically
func resolvePath(p string) (string, error) {
	sep := string(os.PathSeparator)
	parts := strings.Split(p, sep)
	for i := len(parts); i > 0; i-- {
		prefix := strings.Join(parts[:i], sep)
		if prefix == "" {
			prefix = sep
		}
		resolved, err := filepath.EvalSymlinks(prefix)
		if err == nil {
			return filepath.Join(append([]string{resolved}, parts[i:]...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return filepath.Clean(p), nil
}

// safeJoin joins an archive entry name to destDir, rejecting traversal
func safeJoin(destDir, name string) (string, error) {
	//nolint:gosec // G305: Path traversal validated below
	target := filepath.Join(destDir, name)
	if !within(destDir, target) {
		return "", fmt.Errorf("invalid file path in archive: %s", name)
	}
	return target, nil
}

func within(root, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(os.PathSeparator))
}

func readZipEntry(f *zip.File, limit int64) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
	}
	//nolint:errcheck // Defer close on zip entry
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return "", fmt.Errorf("failed to read zip entry %s: %w", f.Name, err)
	}
	return string(data), nil
}
