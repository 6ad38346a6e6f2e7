// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/binsync/internal/domain/entities"
)

// TargetRepository defines the interface for the configuration document holding release targets
type TargetRepository interface {
	// ListTargets returns all configured targets in document order
	ListTargets(ctx context.Context) ([]*entities.ReleaseTarget, error)

	// SaveVersions writes the targets' versions back, preserving everything else in the document
	SaveVersions(ctx context.Context, targets []*entities.ReleaseTarget) error
}

// RunHistory records completed runs
type RunHistory interface {
	// RecordRun stores every outcome of a run
	RecordRun(ctx context.Context, report *entities.RunReport) error
}
