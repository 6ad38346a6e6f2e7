// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ochairo/binsync/internal/domain/entities"
	"github.com/ochairo/binsync/internal/domain/interfaces"
	"github.com/ochairo/binsync/internal/domain/interfaces/gateways"
	"github.com/ochairo/binsync/internal/domain/interfaces/repositories"
	"github.com/ochairo/binsync/internal/domain/services"
)

// Skip reasons reported when the remote sync does not run
const (
	SkipReasonDryRun        = "dry run"
	SkipReasonDisabled      = "sync disabled"
	SkipReasonNothingToDo   = "nothing to do"
	SkipReasonNotConfigured = "remote store not configured"
)

// Staging hands out per-target scratch directories for one run
type Staging interface {
	Dir(name string) (string, error)
	Close() error
}

// StagingFactory opens the staging area of a run
type StagingFactory func() (Staging, error)

// Mirrorer copies the local output tree to the remote store
type Mirrorer interface {
	Mirror(ctx context.Context, localRoot, remoteBase string) (*entities.UploadReport, error)
}

// SyncOrchestrator runs the release sync pipeline over a set of targets
type SyncOrchestrator struct {
	fetcher      gateways.ReleaseGateway
	materializer gateways.Materializer
	targetRepo   repositories.TargetRepository
	history      repositories.RunHistory
	mirror       Mirrorer
	newStaging   StagingFactory
	logger       interfaces.Logger
	outputDir    string
	remoteBase   string
}

// SyncOrchestratorConfig holds configuration for the orchestrator
type SyncOrchestratorConfig struct {
	OutputDir  string
	RemoteBase string
	// History and Mirror are optional
	History repositories.RunHistory
	Mirror  Mirrorer
}

// RunOptions control a single pipeline run
type RunOptions struct {
	DryRun      bool // check only: nothing is downloaded, committed or synced
	ForceSync   bool
	SkipSync    bool
	Concurrency int      // targets processed at once, <= 1 means sequential
	Only        []string // restrict the run to these target names
}

// NewSyncOrchestrator creates a new sync orchestrator
func NewSyncOrchestrator(
	fetcher gateways.ReleaseGateway,
	materializer gateways.Materializer,
	targetRepo repositories.TargetRepository,
	newStaging StagingFactory,
	config SyncOrchestratorConfig,
	logger interfaces.Logger,
) *SyncOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	outputDir := config.OutputDir
	if outputDir == "" {
		outputDir = "bin"
	}

	return &SyncOrchestrator{
		fetcher:      fetcher,
		materializer: materializer,
		targetRepo:   targetRepo,
		history:      config.History,
		mirror:       config.Mirror,
		newStaging:   newStaging,
		logger:       logger,
		outputDir:    outputDir,
		remoteBase:   config.RemoteBase,
	}
}

// Run drives every selected target to a terminal state, then persists
// committed versions and triggers the remote sync.
//
// Recoverable failures are logged and recorded on the target outcome. Any
// other error aborts the run and is returned together with the partial report.
func (o *SyncOrchestrator) Run(ctx context.Context, targets []*entities.ReleaseTarget, opts RunOptions) (*entities.RunReport, error) {
	startTime := time.Now()
	report := &entities.RunReport{RunID: uuid.NewString()}

	selected, err := selectTargets(targets, opts.Only)
	if err != nil {
		return report, err
	}

	o.logger.Info("Starting sync run",
		interfaces.F("run_id", report.RunID),
		interfaces.F("targets", len(selected)),
		interfaces.F("dry_run", opts.DryRun))

	var staging Staging
	if !opts.DryRun {
		staging, err = o.newStaging()
		if err != nil {
			return report, fmt.Errorf("failed to create staging area: %w", err)
		}
		defer func() {
			if err := staging.Close(); err != nil {
				o.logger.Warn("Failed to clean staging area", interfaces.F("error", err))
			}
		}()
	}

	outcomes := make([]entities.SyncOutcome, len(selected))

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, target := range selected {
		i, target := i, target
		g.Go(func() error {
			outcome, err := o.processTarget(gctx, i, target, staging, opts.DryRun)
			outcomes[i] = outcome
			return err
		})
	}
	runErr := g.Wait()
	report.Outcomes = outcomes
	report.Committed = report.CountState(entities.StateVersionCommitted)

	if runErr != nil {
		o.logger.Error("Sync run aborted", interfaces.F("run_id", report.RunID), interfaces.F("error", runErr))
		o.recordHistory(ctx, report)
		return report, runErr
	}

	if report.Committed > 0 && !opts.DryRun {
		o.persist(ctx, targets, report)
	}

	o.sync(ctx, report, opts)
	o.recordHistory(ctx, report)

	o.logger.Info("Sync run finished",
		interfaces.F("run_id", report.RunID),
		interfaces.F("committed", report.Committed),
		interfaces.F("up_to_date", report.CountState(entities.StateUpToDate)),
		interfaces.F("partial", report.CountState(entities.StatePartialFailure)),
		interfaces.F("stale", report.CountState(entities.StateStaleNoData)),
		interfaces.F("duration", time.Since(startTime).Round(time.Millisecond)))

	return report, nil
}

// processTarget walks one target through the state machine. The returned
// error is non-nil only for failures outside the recoverable taxonomy.
func (o *SyncOrchestrator) processTarget(ctx context.Context, index int, target *entities.ReleaseTarget, staging Staging, dryRun bool) (entities.SyncOutcome, error) {
	outcome := entities.SyncOutcome{
		Target:          target.Name,
		Repo:            target.Repo,
		PreviousVersion: target.Version,
		State:           entities.StateCheck,
	}

	release, err := o.fetcher.GetLatestRelease(ctx, target.Repo)
	if err != nil {
		if !services.IsRecoverable(err) || ctx.Err() != nil {
			return outcome, fmt.Errorf("target %s: %w", target.Name, errors.Join(err, ctx.Err()))
		}
		o.logger.Warn("Failed to fetch release",
			interfaces.F("target", target.Name),
			interfaces.F("repo", target.Repo),
			interfaces.F("error", err))
		outcome.State = entities.StateStaleNoData
		outcome.Failures = append(outcome.Failures, err.Error())
		return outcome, nil
	}

	outcome.NewVersion = release.Tag
	if services.Decide(target.Version, release.Tag) == services.UpToDate {
		o.logger.Info("Up to date", interfaces.F("target", target.Name), interfaces.F("version", release.Tag))
		outcome.State = entities.StateUpToDate
		return outcome, nil
	}

	outcome.State = entities.StateUpdateAvailable
	o.logger.Info("Update available",
		interfaces.F("target", target.Name),
		interfaces.F("current", displayVersion(target.Version)),
		interfaces.F("latest", release.Tag))
	if dryRun {
		return outcome, nil
	}

	stagingDir, err := staging.Dir(fmt.Sprintf("%d-%s", index, target.Name))
	if err != nil {
		return outcome, fmt.Errorf("target %s: failed to acquire staging directory: %w", target.Name, err)
	}

	complete := true
	for _, spec := range target.Files {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		written, err := o.materializeSpec(ctx, target, spec, release, stagingDir)
		outcome.FilesWritten = append(outcome.FilesWritten, written...)
		if err == nil {
			continue
		}
		if !services.IsRecoverable(err) || ctx.Err() != nil {
			return outcome, fmt.Errorf("target %s: %w", target.Name, errors.Join(err, ctx.Err()))
		}
		complete = false
		outcome.Failures = append(outcome.Failures, err.Error())
		o.logger.Warn("File spec failed",
			interfaces.F("target", target.Name),
			interfaces.F("keywords", spec.Keywords),
			interfaces.F("kind", services.Kind(err)),
			interfaces.F("error", err))
	}

	if !complete {
		outcome.State = entities.StatePartialFailure
		o.logger.Warn("Version not committed",
			interfaces.F("target", target.Name),
			interfaces.F("latest", release.Tag),
			interfaces.F("failures", len(outcome.Failures)))
		return outcome, nil
	}

	target.Version = release.Tag
	outcome.Updated = true
	outcome.State = entities.StateVersionCommitted
	o.logger.Info("Version committed",
		interfaces.F("target", target.Name),
		interfaces.F("version", release.Tag),
		interfaces.F("files", len(outcome.FilesWritten)))
	return outcome, nil
}

// materializeSpec selects and lays out the asset of a single FileSpec.
// Written paths are returned relative to the output root.
func (o *SyncOrchestrator) materializeSpec(ctx context.Context, target *entities.ReleaseTarget, spec entities.FileSpec, release *entities.UpstreamRelease, stagingDir string) ([]string, error) {
	match := services.SelectBest(release.Assets, spec.Keywords)
	if !match.Found() {
		return nil, fmt.Errorf("%w: %s %s: keywords %v", services.ErrNoMatchFound, target.Name, release.Tag, spec.Keywords)
	}
	asset := *match.Asset

	dest, err := services.ResolveDestination(o.outputDir, target, spec, asset.Name, release.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: invalid destination: %w", services.ErrExtractFailed, target.Name, err)
	}

	o.logger.Debug("Selected asset",
		interfaces.F("target", target.Name),
		interfaces.F("asset", asset.Name),
		interfaces.F("score", match.Score),
		interfaces.F("destination", dest))

	written, err := o.materializer.Materialize(ctx, asset, stagingDir, dest)
	rel := make([]string, 0, len(written))
	for _, p := range written {
		rel = append(rel, o.relative(p))
	}
	return rel, err
}

func (o *SyncOrchestrator) persist(ctx context.Context, targets []*entities.ReleaseTarget, report *entities.RunReport) {
	err := o.targetRepo.SaveVersions(ctx, targets)
	if err == nil {
		report.ConfigRewritten = true
		o.logger.Info("Configuration updated", interfaces.F("committed", report.Committed))
		return
	}
	if !errors.Is(err, services.ErrPersistFailed) {
		err = fmt.Errorf("%w: %w", services.ErrPersistFailed, err)
	}
	o.logger.Warn("Failed to save versions", interfaces.F("error", err))
}

func (o *SyncOrchestrator) sync(ctx context.Context, report *entities.RunReport, opts RunOptions) {
	switch {
	case opts.DryRun:
		report.SyncSkipReason = SkipReasonDryRun
	case opts.SkipSync:
		report.SyncSkipReason = SkipReasonDisabled
	case report.Committed == 0 && !opts.ForceSync:
		report.SyncSkipReason = SkipReasonNothingToDo
	case o.mirror == nil:
		report.SyncSkipReason = SkipReasonNotConfigured
	}
	if report.SyncSkipReason != "" {
		o.logger.Info("Skipping remote sync", interfaces.F("reason", report.SyncSkipReason))
		return
	}

	upload, err := o.mirror.Mirror(ctx, o.outputDir, o.remoteBase)
	report.Upload = upload
	report.Synced = true
	if err != nil {
		o.logger.Warn("Remote sync finished with errors", interfaces.F("error", err))
	}
}

func (o *SyncOrchestrator) recordHistory(ctx context.Context, report *entities.RunReport) {
	if o.history == nil {
		return
	}
	if err := o.history.RecordRun(context.WithoutCancel(ctx), report); err != nil {
		o.logger.Warn("Failed to record run history", interfaces.F("error", err))
	}
}

func (o *SyncOrchestrator) relative(p string) string {
	rel, err := filepath.Rel(o.outputDir, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

// selectTargets keeps document order. Unknown names are an error.
func selectTargets(targets []*entities.ReleaseTarget, only []string) ([]*entities.ReleaseTarget, error) {
	if len(only) == 0 {
		return targets, nil
	}
	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = false
	}
	var selected []*entities.ReleaseTarget
	for _, t := range targets {
		if _, ok := wanted[t.Name]; ok {
			wanted[t.Name] = true
			selected = append(selected, t)
		}
	}
	for _, name := range only {
		if !wanted[name] {
			return nil, fmt.Errorf("unknown target: %s", name)
		}
	}
	return selected, nil
}

func displayVersion(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}
