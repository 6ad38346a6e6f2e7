package orchestrators_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ochairo/binsync/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/binsync/internal/domain-orchestrators"
	"github.com/ochairo/binsync/internal/domain/entities"
	"github.com/ochairo/binsync/internal/domain/interfaces"
	"github.com/ochairo/binsync/internal/external-adapters/yaml"
)

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0755, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newPipeline(t *testing.T, configPath, outputDir, apiURL string) (*orchestrators.SyncOrchestrator, *yaml.TargetRepository) {
	t.Helper()
	logger := &interfaces.NoOpLogger{}
	repo := yaml.NewTargetRepository(configPath)
	stagingRoot := t.TempDir()

	orch := orchestrators.NewSyncOrchestrator(
		gateways.NewHTTPGitHubGateway("", gateways.WithBaseURL(apiURL)),
		gateways.NewDownloader(logger),
		repo,
		func() (orchestrators.Staging, error) {
			arena, err := gateways.NewStagingArena(stagingRoot)
			if err != nil {
				return nil, err
			}
			return arena, nil
		},
		orchestrators.SyncOrchestratorConfig{OutputDir: outputDir},
		logger,
	)
	return orch, repo
}

// TestEndToEnd_LocalRelease wires the real adapters against a local release server
func TestEndToEnd_LocalRelease(t *testing.T) {
	archive := tarGz(t, map[string]string{
		"tool-1.1.0/tool":      "#!/bin/sh\necho tool\n",
		"tool-1.1.0/README.md": "docs",
	})

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/tool/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"tag_name":"v1.1.0","assets":[
			{"name":"tool-1.1.0-x86_64-unknown-linux-musl.tar.gz","browser_download_url":"%s/dl/linux"},
			{"name":"tool-1.1.0-aarch64-apple-darwin.tar.gz","browser_download_url":"%s/dl/darwin"},
			{"name":"checksums.txt","browser_download_url":"%s/dl/sums"}
		]}`, server.URL, server.URL, server.URL)
	})
	mux.HandleFunc("/dl/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(archive)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	config := `releases:
  - name: tool
    repo: acme/tool
    version: v1.0.0
    file_list:
      - "linux,x86_64:tool/linux"
      - keywords: [darwin, aarch64]
        path: "{name}/{arch}"
`
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		t.Fatal(err)
	}
	outputDir := filepath.Join(dir, "bin")

	orch, repo := newPipeline(t, configPath, outputDir, server.URL)
	ctx := context.Background()

	targets, err := repo.ListTargets(ctx)
	if err != nil {
		t.Fatalf("ListTargets failed: %v", err)
	}
	report, err := orch.Run(ctx, targets, orchestrators.RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Committed != 1 || !report.ConfigRewritten {
		t.Fatalf("report = %+v", report)
	}
	outcome := report.Outcomes[0]
	if outcome.State != entities.StateVersionCommitted {
		t.Fatalf("state = %s, failures = %v", outcome.State, outcome.Failures)
	}
	if len(outcome.FilesWritten) != 4 {
		t.Errorf("files written = %v, want 4 entries", outcome.FilesWritten)
	}
	for _, f := range outcome.FilesWritten {
		if !strings.HasPrefix(f, "tool/") {
			t.Errorf("written path %q is not relative to the output root", f)
		}
		if _, err := os.Stat(filepath.Join(outputDir, filepath.FromSlash(f))); err != nil {
			t.Errorf("written file missing: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(outputDir, "tool", "linux", "tool-1.1.0", "tool")); err != nil {
		t.Errorf("linux binary not extracted: %v", err)
	}

	reloaded, err := repo.ListTargets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded[0].Version != "v1.1.0" {
		t.Errorf("persisted version = %q, want v1.1.0", reloaded[0].Version)
	}

	// A second run must be a no-op
	report, err = orch.Run(ctx, reloaded, orchestrators.RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if report.Outcomes[0].State != entities.StateUpToDate || report.ConfigRewritten {
		t.Errorf("second run = %+v", report.Outcomes[0])
	}
}

type memoryStore struct {
	files map[string]string
}

func (m *memoryStore) MkdirAll(_ context.Context, _ string) error { return nil }

func (m *memoryStore) Upload(_ context.Context, remotePath string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.files[remotePath] = string(data)
	return nil
}

// TestEndToEnd_MirrorUploadsSymlinkedFiles mirrors an extracted tree whose
// archive carried a symlink into the remote layout
func TestEndToEnd_MirrorUploadsSymlinkedFiles(t *testing.T) {
	root := t.TempDir()
	cliPath := filepath.Join(root, "node", "x64", "lib", "npm-cli.js")
	if err := os.MkdirAll(filepath.Dir(cliPath), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cliPath, []byte("cli"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "node", "x64", "bin"), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("../lib/npm-cli.js", filepath.Join(root, "node", "x64", "bin", "npm")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	store := &memoryStore{files: make(map[string]string)}
	mirror := orchestrators.NewMirrorOrchestrator(store, gateways.NewArtifactFinder(), &interfaces.NoOpLogger{})

	report, err := mirror.Mirror(context.Background(), root, "Github_Software")
	if err != nil {
		t.Fatalf("Mirror failed: %v", err)
	}
	if len(report.Uploaded) != 2 {
		t.Errorf("uploaded = %v, want the file and the link", report.Uploaded)
	}
	for _, remote := range []string{"Github_Software/node/x64/bin/npm", "Github_Software/node/x64/lib/npm-cli.js"} {
		if got := store.files[remote]; got != "cli" {
			t.Errorf("remote %s = %q, want cli", remote, got)
		}
	}
}

// TestErrorPropagation_MissingConfig verifies the document error reaches the caller
func TestErrorPropagation_MissingConfig(t *testing.T) {
	repo := yaml.NewTargetRepository(filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := repo.ListTargets(context.Background())
	if err == nil {
		t.Fatal("expected error for a missing configuration document")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

// TestEndToEnd_LiveRelease syncs one real repository from api.github.com.
// Run with BINSYNC_LIVE_REPO=owner/name and BINSYNC_LIVE_KEYWORDS=k1,k2.
func TestEndToEnd_LiveRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	repoName := os.Getenv("BINSYNC_LIVE_REPO")
	keywords := os.Getenv("BINSYNC_LIVE_KEYWORDS")
	if repoName == "" || keywords == "" {
		t.Skip("set BINSYNC_LIVE_REPO and BINSYNC_LIVE_KEYWORDS to run against GitHub")
	}

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	config := fmt.Sprintf("releases:\n  - name: live\n    repo: %s\n    file_list:\n      - %q\n", repoName, keywords+":live")
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		t.Fatal(err)
	}

	orch, repo := newPipeline(t, configPath, filepath.Join(dir, "bin"), gateways.DefaultAPIBaseURL)
	ctx := context.Background()
	targets, err := repo.ListTargets(ctx)
	if err != nil {
		t.Fatal(err)
	}

	report, err := orch.Run(ctx, targets, orchestrators.RunOptions{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	outcome := report.Outcomes[0]
	if outcome.State == entities.StateStaleNoData {
		for _, f := range outcome.Failures {
			if strings.Contains(f, "rate limit") {
				t.Skipf("GitHub API rate limited: %s", f)
			}
		}
	}
	if outcome.State != entities.StateVersionCommitted {
		t.Fatalf("state = %s, failures = %v", outcome.State, outcome.Failures)
	}
	t.Logf("Synced %s %s: %d files", repoName, outcome.NewVersion, len(outcome.FilesWritten))
}
