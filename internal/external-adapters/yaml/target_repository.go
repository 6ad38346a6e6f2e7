package yaml

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/binsync/internal/domain/entities"
	"github.com/ochairo/binsync/internal/domain/services"
)

// TargetRepository implements repositories.TargetRepository on a single YAML
// document. Versions are written back into the parsed node tree so comments,
// key order and unknown keys survive a rewrite.
type TargetRepository struct {
	path   string
	parser *TargetParser
	mu     sync.Mutex
}

// NewTargetRepository creates a new YAML-based target repository
func NewTargetRepository(path string) *TargetRepository {
	return &TargetRepository{
		path:   path,
		parser: NewTargetParser(),
	}
}

// Path returns the configuration document location
func (r *TargetRepository) Path() string {
	return r.path
}

// ListTargets returns all configured targets in document order
func (r *TargetRepository) ListTargets(_ context.Context) ([]*entities.ReleaseTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	return r.parser.ParseNode(doc)
}

// SaveVersions writes each target's version into the document. The file is
// only touched when at least one version differs, and is replaced atomically.
// Failures wrap services.ErrPersistFailed.
func (r *TargetRepository) SaveVersions(_ context.Context, targets []*entities.ReleaseTarget) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return fmt.Errorf("%w: %w", services.ErrPersistFailed, err)
	}

	releases := releasesNode(doc)
	if releases == nil {
		return fmt.Errorf("%w: %s has no releases list", services.ErrPersistFailed, r.path)
	}

	versions := make(map[string]string, len(targets))
	for _, t := range targets {
		if t.Version != "" {
			versions[t.Name] = t.Version
		}
	}

	changed := false
	for _, item := range releases.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		name := mappingValue(item, "name")
		if name == nil {
			continue
		}
		version, ok := versions[name.Value]
		if !ok {
			continue
		}
		if setVersion(item, version) {
			changed = true
		}
	}

	if !changed {
		return nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: failed to encode configuration: %w", services.ErrPersistFailed, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: failed to encode configuration: %w", services.ErrPersistFailed, err)
	}

	if err := writeFileAtomic(r.path, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", services.ErrPersistFailed, err)
	}
	return nil
}

func (r *TargetRepository) load() (*yaml.Node, error) {
	//nolint:gosec // G304: path is the configured document
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", r.path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", r.path, err)
	}
	return &doc, nil
}

// releasesNode returns the sequence under the top-level "releases" key
func releasesNode(doc *yaml.Node) *yaml.Node {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	seq := mappingValue(root, "releases")
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil
	}
	return seq
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// setVersion updates or inserts the version scalar, placing a new key right
// after "repo". Reports whether the node changed.
func setVersion(m *yaml.Node, version string) bool {
	if v := mappingValue(m, "version"); v != nil {
		if v.Kind == yaml.ScalarNode && v.Value == version && v.Tag != "!!null" {
			return false
		}
		v.Kind = yaml.ScalarNode
		v.Tag = "!!str"
		v.Value = version
		v.Style = 0
		v.Content = nil
		return true
	}

	key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "version"}
	val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: version}
	insertAt := len(m.Content)
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == "repo" {
			insertAt = i + 2
			break
		}
	}
	content := make([]*yaml.Node, 0, len(m.Content)+2)
	content = append(content, m.Content[:insertAt]...)
	content = append(content, key, val)
	content = append(content, m.Content[insertAt:]...)
	m.Content = content
	return true
}

// writeFileAtomic replaces path through a temp file in the same directory
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
