// Package yaml provides the YAML configuration document holding release targets.
package yaml

import (
	"fmt"
	"regexp"
	"strings"

	validator "gopkg.in/go-playground/validator.v9"
	"gopkg.in/yaml.v3"

	"github.com/ochairo/binsync/internal/domain/entities"
)

var repoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// yamlDocument represents the raw YAML structure
type yamlDocument struct {
	Releases []yamlTarget `yaml:"releases" validate:"dive"`
}

type yamlTarget struct {
	Name     string         `yaml:"name" validate:"required"`
	Repo     string         `yaml:"repo" validate:"required,repo"`
	Version  string         `yaml:"version"`
	FileList []yamlFileSpec `yaml:"file_list" validate:"dive"`
}

// yamlFileSpec accepts either the compact "k1,k2:destination" string or a
// mapping with keywords and path.
type yamlFileSpec struct {
	Keywords []string `yaml:"keywords" validate:"required,min=1,dive,required"`
	Path     string   `yaml:"path"`
}

// UnmarshalYAML implements yaml.Unmarshaler
func (f *yamlFileSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		keywords, path, _ := strings.Cut(node.Value, ":")
		f.Keywords = splitKeywords(keywords)
		f.Path = strings.TrimSpace(path)
		return nil
	case yaml.MappingNode:
		type plain yamlFileSpec
		var raw plain
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*f = yamlFileSpec(raw)
		f.Keywords = splitKeywords(strings.Join(f.Keywords, ","))
		f.Path = strings.TrimSpace(f.Path)
		return nil
	default:
		return fmt.Errorf("line %d: file_list entry must be a string or a mapping", node.Line)
	}
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// TargetParser parses the YAML configuration document
type TargetParser struct {
	validate *validator.Validate
}

// NewTargetParser creates a new YAML parser
func NewTargetParser() *TargetParser {
	validate := validator.New()
	_ = validate.RegisterValidation("repo", func(fl validator.FieldLevel) bool {
		repo := fl.Field().String()
		if !repoPattern.MatchString(repo) {
			return false
		}
		for _, part := range strings.Split(repo, "/") {
			if part == "." || part == ".." {
				return false
			}
		}
		return true
	})
	return &TargetParser{validate: validate}
}

// Parse parses YAML bytes into release targets, in document order
func (p *TargetParser) Parse(data []byte) ([]*entities.ReleaseTarget, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return p.ParseNode(&doc)
}

// ParseNode converts an already parsed document into release targets
func (p *TargetParser) ParseNode(doc *yaml.Node) ([]*entities.ReleaseTarget, error) {
	var raw yamlDocument
	if doc.Kind != 0 {
		if err := doc.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode configuration: %w", err)
		}
	}

	if err := p.validate.Struct(raw); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	seen := make(map[string]bool, len(raw.Releases))
	targets := make([]*entities.ReleaseTarget, 0, len(raw.Releases))
	for _, r := range raw.Releases {
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate release name: %s", r.Name)
		}
		seen[r.Name] = true
		targets = append(targets, convertTarget(r))
	}

	return targets, nil
}

func convertTarget(r yamlTarget) *entities.ReleaseTarget {
	files := make([]entities.FileSpec, 0, len(r.FileList))
	for _, f := range r.FileList {
		files = append(files, entities.FileSpec{
			Keywords:    f.Keywords,
			Destination: f.Path,
		})
	}
	return &entities.ReleaseTarget{
		Name:    r.Name,
		Repo:    r.Repo,
		Version: strings.TrimSpace(r.Version),
		Files:   files,
	}
}
