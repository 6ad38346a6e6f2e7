package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ochairo/binsync/internal/config"
	"github.com/ochairo/binsync/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/binsync/internal/domain-orchestrators"
	"github.com/ochairo/binsync/internal/domain/interfaces"
	"github.com/ochairo/binsync/internal/external-adapters/logging"
	"github.com/ochairo/binsync/internal/external-adapters/sqlite"
	"github.com/ochairo/binsync/internal/external-adapters/webdav"
	"github.com/ochairo/binsync/internal/external-adapters/yaml"
)

// app holds the settings and adapters of one command invocation
type app struct {
	settings *config.Settings
	logger   *logging.ZapLogger
	out      io.Writer
	closers  []io.Closer
}

func newApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.configPath != "" {
		settings.ConfigPath = flags.configPath
	}
	if flags.outputDir != "" {
		settings.OutputDir = flags.outputDir
	}

	return &app{
		settings: settings,
		logger:   logging.NewWithWriter(cmd.ErrOrStderr(), flags.verbose),
		out:      cmd.OutOrStdout(),
	}, nil
}

// Close releases every adapter opened by the app
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func (a *app) targetRepository() *yaml.TargetRepository {
	return yaml.NewTargetRepository(a.settings.ConfigPath)
}

func (a *app) releaseGateway() *gateways.HTTPGitHubGateway {
	return gateways.NewHTTPGitHubGateway(a.settings.Token(), gateways.WithBaseURL(a.settings.APIURL))
}

// mirror returns nil when no WebDAV server is configured
func (a *app) mirror() (orchestrators.Mirrorer, error) {
	if !a.settings.WebDAVConfigured() {
		return nil, nil
	}
	store, err := webdav.NewStore(a.settings.WebDAVURL, a.settings.WebDAVUsername, a.settings.WebDAVPassword)
	if err != nil {
		return nil, err
	}
	return orchestrators.NewMirrorOrchestrator(store, gateways.NewArtifactFinder(), a.logger), nil
}

// history returns nil when BINSYNC_HISTORY_DB is empty
func (a *app) history() (*sqlite.HistoryStore, error) {
	if a.settings.HistoryDB == "" {
		return nil, nil
	}
	db, err := sqlite.NewDB(a.settings.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	a.closers = append(a.closers, db)
	return sqlite.NewHistoryStore(db, 0), nil
}

func (a *app) newStaging() (orchestrators.Staging, error) {
	arena, err := gateways.NewStagingArena(a.settings.StagingDir)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Staging area created", interfaces.F("dir", arena.Root()))
	return arena, nil
}

func (a *app) syncOrchestrator(withRemote bool) (*orchestrators.SyncOrchestrator, error) {
	cfg := orchestrators.SyncOrchestratorConfig{
		OutputDir:  a.settings.OutputDir,
		RemoteBase: a.settings.RemoteBase,
	}

	history, err := a.history()
	if err != nil {
		return nil, err
	}
	if history != nil {
		cfg.History = history
	}

	if withRemote {
		mirror, err := a.mirror()
		if err != nil {
			return nil, err
		}
		if mirror == nil {
			a.logger.Warn("WEBDAV_URL is not set, remote sync will be skipped")
		}
		cfg.Mirror = mirror
	}

	return orchestrators.NewSyncOrchestrator(
		a.releaseGateway(),
		gateways.NewDownloader(a.logger),
		a.targetRepository(),
		a.newStaging,
		cfg,
		a.logger,
	), nil
}
