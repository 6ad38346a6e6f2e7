package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ochairo/binsync/internal/domain/entities"
	"github.com/ochairo/binsync/internal/domain/services"
)

const (
	// DefaultAPIBaseURL is the public GitHub REST endpoint
	DefaultAPIBaseURL = "https://api.github.com"
	// DefaultUserAgent is sent with every request
	DefaultUserAgent = "binsync/1.0"

	apiTimeout = 30 * time.Second
)

// HTTPGitHubGateway implements ReleaseGateway using standard HTTP client
type HTTPGitHubGateway struct {
	client    *http.Client
	baseURL   string
	token     string
	userAgent string
}

// GitHubOption customizes an HTTPGitHubGateway
type GitHubOption func(*HTTPGitHubGateway)

// WithBaseURL points the gateway at another API root (GitHub Enterprise, tests)
func WithBaseURL(baseURL string) GitHubOption {
	return func(g *HTTPGitHubGateway) {
		if baseURL != "" {
			g.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) GitHubOption {
	return func(g *HTTPGitHubGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) GitHubOption {
	return func(g *HTTPGitHubGateway) {
		if userAgent != "" {
			g.userAgent = userAgent
		}
	}
}

// NewHTTPGitHubGateway creates a new GitHub gateway. The token is optional.
func NewHTTPGitHubGateway(token string, opts ...GitHubOption) *HTTPGitHubGateway {
	g := &HTTPGitHubGateway{
		client: &http.Client{
			Timeout: apiTimeout,
		},
		baseURL:   DefaultAPIBaseURL,
		token:     token,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// checkRateLimit checks GitHub API rate limit headers and returns error if exhausted
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return nil // No rate limit header, continue
	}

	remainingInt, err := strconv.Atoi(remaining)
	if err != nil {
		return nil // Invalid header, ignore
	}

	if remainingInt == 0 && resp.StatusCode != http.StatusOK {
		resetTime := resp.Header.Get("X-RateLimit-Reset")
		if resetTime != "" {
			if resetUnix, err := strconv.ParseInt(resetTime, 10, 64); err == nil {
				resetAt := time.Unix(resetUnix, 0)
				return fmt.Errorf("GitHub API rate limit exceeded (0 remaining), resets at %s", resetAt.Format(time.RFC3339))
			}
		}
		return fmt.Errorf("GitHub API rate limit exceeded (0 remaining)")
	}

	return nil
}

// githubRelease represents the GitHub API release format
type githubRelease struct {
	TagName    string        `json:"tag_name"`
	Name       string        `json:"name"`
	Draft      bool          `json:"draft"`
	Prerelease bool          `json:"prerelease"`
	Assets     []githubAsset `json:"assets"`
}

// githubAsset represents a GitHub release asset
type githubAsset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	Digest             string `json:"digest"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// ValidateRepo checks the "owner/name" form of a repository identifier
func ValidateRepo(repo string) error {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid repository %q, expected owner/name", repo)
	}
	for _, p := range parts {
		if strings.ContainsAny(p, " ?#%") || p == "." || p == ".." {
			return fmt.Errorf("invalid repository %q, expected owner/name", repo)
		}
	}
	return nil
}

// GetLatestRelease retrieves the latest published release of a repository.
// A single attempt is made; every failure wraps services.ErrFetchFailed.
func (g *HTTPGitHubGateway) GetLatestRelease(ctx context.Context, repo string) (*entities.UpstreamRelease, error) {
	if err := ValidateRepo(repo); err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrFetchFailed, err)
	}

	url := fmt.Sprintf("%s/repos/%s/releases/latest", g.baseURL, repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", services.ErrFetchFailed, err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", g.userAgent)
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", services.ErrFetchFailed, repo, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if rateLimitErr := checkRateLimit(resp); rateLimitErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", services.ErrFetchFailed, repo, rateLimitErr)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s: no published release", services.ErrFetchFailed, repo)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: HTTP %d", services.ErrFetchFailed, repo, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s: HTTP %d: %s", services.ErrFetchFailed, repo, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var result githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %s: failed to decode response: %w", services.ErrFetchFailed, repo, err)
	}

	if result.TagName == "" {
		return nil, fmt.Errorf("%w: %s: release has no tag", services.ErrFetchFailed, repo)
	}

	release := &entities.UpstreamRelease{
		Tag:    result.TagName,
		Assets: make([]entities.Asset, 0, len(result.Assets)),
	}
	for _, a := range result.Assets {
		release.Assets = append(release.Assets, entities.Asset{
			Name:        a.Name,
			DownloadURL: a.BrowserDownloadURL,
			Size:        a.Size,
			Digest:      a.Digest,
		})
	}

	return release, nil
}
