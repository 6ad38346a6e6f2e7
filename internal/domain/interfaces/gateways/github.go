// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"
	"io"

	"github.com/ochairo/binsync/internal/domain/entities"
)

// ReleaseGateway retrieves release metadata from the upstream API
type ReleaseGateway interface {
	// GetLatestRelease returns the latest published release of "owner/name"
	GetLatestRelease(ctx context.Context, repo string) (*entities.UpstreamRelease, error)
}

// Materializer downloads an asset and lays it out under a destination directory
type Materializer interface {
	// Materialize stages the download inside stagingDir and returns the paths
	// written under destination. The staged file never outlives the call.
	Materialize(ctx context.Context, asset entities.Asset, stagingDir, destination string) ([]string, error)
}

// RemoteStore is the remote file store the output tree is mirrored to
type RemoteStore interface {
	// MkdirAll ensures a remote directory exists
	MkdirAll(ctx context.Context, remoteDir string) error

	// Upload creates or overwrites the file at remotePath
	Upload(ctx context.Context, remotePath string, content io.Reader) error
}
