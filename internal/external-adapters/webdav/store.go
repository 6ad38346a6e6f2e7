// Package webdav implements the remote file store on a WebDAV server.
package webdav

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

const defaultTimeout = 10 * time.Minute

// ErrNotConfigured is returned when no server URL is available
var ErrNotConfigured = errors.New("webdav server not configured")

// Store implements gateways.RemoteStore using gowebdav
type Store struct {
	client *gowebdav.Client
}

// Option customizes a Store
type Option func(*gowebdav.Client)

// WithTransport replaces the HTTP transport used by the client
func WithTransport(rt http.RoundTripper) Option {
	return func(c *gowebdav.Client) {
		if rt != nil {
			c.SetTransport(rt)
		}
	}
}

// WithTimeout overrides the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *gowebdav.Client) {
		if timeout > 0 {
			c.SetTimeout(timeout)
		}
	}
}

// NewStore creates a WebDAV-backed store rooted at url
func NewStore(url, username, password string, opts ...Option) (*Store, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrNotConfigured
	}

	client := gowebdav.NewClient(url, username, password)
	client.SetTimeout(defaultTimeout)
	for _, opt := range opts {
		opt(client)
	}

	return &Store{client: client}, nil
}

// MkdirAll ensures a remote directory and its parents exist
func (s *Store) MkdirAll(ctx context.Context, remoteDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.MkdirAll(normalize(remoteDir), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", remoteDir, err)
	}
	return nil
}

// Upload creates or overwrites the file at remotePath
func (s *Store) Upload(ctx context.Context, remotePath string, content io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.WriteStream(normalize(remotePath), content, 0644); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	return nil
}

func normalize(p string) string {
	return "/" + strings.TrimLeft(p, "/")
}
