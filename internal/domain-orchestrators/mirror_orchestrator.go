package orchestrators

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/ochairo/binsync/internal/domain/entities"
	"github.com/ochairo/binsync/internal/domain/interfaces"
	"github.com/ochairo/binsync/internal/domain/interfaces/gateways"
	"github.com/ochairo/binsync/internal/domain/services"
)

// FileLister enumerates the files of the local output tree
type FileLister interface {
	ListFiles(root string) ([]string, error)
}

// MirrorOrchestrator uploads the local output tree to a remote store
type MirrorOrchestrator struct {
	store  gateways.RemoteStore
	lister FileLister
	logger interfaces.Logger
}

// NewMirrorOrchestrator creates a new mirror orchestrator
func NewMirrorOrchestrator(store gateways.RemoteStore, lister FileLister, logger interfaces.Logger) *MirrorOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &MirrorOrchestrator{
		store:  store,
		lister: lister,
		logger: logger,
	}
}

// Mirror uploads every regular file under localRoot to the same relative path
// under remoteBase. A failed file is recorded and the remaining files still
// upload; the returned error aggregates every failure.
func (m *MirrorOrchestrator) Mirror(ctx context.Context, localRoot, remoteBase string) (*entities.UploadReport, error) {
	report := &entities.UploadReport{Failed: make(map[string]string)}

	files, err := m.lister.ListFiles(localRoot)
	if err != nil {
		return report, fmt.Errorf("%w: %w", services.ErrUploadFailed, err)
	}

	base := strings.Trim(remoteBase, "/")
	created := make(map[string]bool)
	var result *multierror.Error

	m.logger.Info("Mirroring output tree",
		interfaces.F("local", localRoot),
		interfaces.F("remote", remoteBase),
		interfaces.F("files", len(files)))

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return report, multierror.Append(result, err).ErrorOrNil()
		}

		remotePath := path.Join(base, rel)
		if err := m.uploadOne(ctx, localRoot, rel, remotePath, created); err != nil {
			err = fmt.Errorf("%w: %s: %w", services.ErrUploadFailed, rel, err)
			report.Failed[rel] = err.Error()
			result = multierror.Append(result, err)
			m.logger.Warn("Upload failed", interfaces.F("file", rel), interfaces.F("error", err))
			continue
		}
		report.Uploaded = append(report.Uploaded, rel)
		m.logger.Debug("Uploaded", interfaces.F("file", rel), interfaces.F("remote", remotePath))
	}

	m.logger.Info("Mirror finished",
		interfaces.F("uploaded", len(report.Uploaded)),
		interfaces.F("failed", len(report.Failed)))

	return report, result.ErrorOrNil()
}

func (m *MirrorOrchestrator) uploadOne(ctx context.Context, localRoot, rel, remotePath string, created map[string]bool) error {
	if dir := path.Dir(remotePath); dir != "." && !created[dir] {
		if err := m.store.MkdirAll(ctx, dir); err != nil {
			return fmt.Errorf("failed to create remote directory %s: %w", dir, err)
		}
		created[dir] = true
	}

	//nolint:gosec // G304: path comes from walking localRoot
	f, err := os.Open(filepath.Join(localRoot, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	return m.store.Upload(ctx, remotePath, f)
}
