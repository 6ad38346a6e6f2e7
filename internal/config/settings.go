// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Settings holds everything the CLI reads from the environment. Flags take
// precedence over these values.
type Settings struct {
	GitHubToken string `envconfig:"GITHUB_TOKEN"`
	GHToken     string `envconfig:"GH_TOKEN"`

	WebDAVURL      string `envconfig:"WEBDAV_URL"`
	WebDAVUsername string `envconfig:"WEBDAV_USERNAME"`
	WebDAVPassword string `envconfig:"WEBDAV_PASSWORD"`

	ConfigPath  string `envconfig:"BINSYNC_CONFIG" default:"config.yaml"`
	OutputDir   string `envconfig:"BINSYNC_OUTPUT_DIR" default:"bin"`
	RemoteBase  string `envconfig:"BINSYNC_REMOTE_BASE" default:"Github_Software"`
	StagingDir  string `envconfig:"BINSYNC_STAGING_DIR" default:".cache"`
	HistoryDB   string `envconfig:"BINSYNC_HISTORY_DB" default:".cache/history.db"`
	APIURL      string `envconfig:"BINSYNC_API_URL"`
	Concurrency int    `envconfig:"BINSYNC_CONCURRENCY" default:"1"`
}

// Load reads Settings from the environment
func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if s.Concurrency < 1 {
		return nil, fmt.Errorf("BINSYNC_CONCURRENCY must be at least 1, got %d", s.Concurrency)
	}
	return &s, nil
}

// Token returns the GitHub token, preferring GITHUB_TOKEN over GH_TOKEN
func (s *Settings) Token() string {
	if t := strings.TrimSpace(s.GitHubToken); t != "" {
		return t
	}
	return strings.TrimSpace(s.GHToken)
}

// WebDAVConfigured reports whether a remote store can be used
func (s *Settings) WebDAVConfigured() bool {
	return strings.TrimSpace(s.WebDAVURL) != ""
}
