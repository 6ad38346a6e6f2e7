package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// StagingArena is a run-scoped scratch directory. Every target acquires its
// own subdirectory so concurrent targets never share a staging path; Close
// removes the whole arena.
type StagingArena struct {
	root   string
	mu     sync.Mutex
	closed bool
}

// NewStagingArena creates a fresh, uniquely named arena under parent
func NewStagingArena(parent string) (*StagingArena, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	root := filepath.Join(parent, "staging-"+uuid.NewString())
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &StagingArena{root: root}, nil
}

// Root returns the arena directory
func (a *StagingArena) Root() string {
	return a.root
}

// Dir creates and returns an isolated subdirectory for name
func (a *StagingArena) Dir(name string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return "", fmt.Errorf("staging arena %s is closed", a.root)
	}

	clean := sanitizeFilename(name)
	if clean == "" {
		clean = uuid.NewString()
	}
	dir := filepath.Join(a.root, clean)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create staging subdirectory: %w", err)
	}
	return dir, nil
}

// Close removes the arena and everything staged in it
func (a *StagingArena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if err := os.RemoveAll(a.root); err != nil {
		return fmt.Errorf("failed to remove staging directory: %w", err)
	}
	return nil
}
