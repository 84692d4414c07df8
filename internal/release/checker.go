package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adamancini/stewardctl/internal/failure"
)

// GitHubChecker reads release metadata from the GitHub API
type GitHubChecker struct {
	githubToken string // Optional, for rate limiting
	owner       string // Repository owner
	repo        string // Repository name
	client      *http.Client
	baseURL     string // Base URL for GitHub API (for testing)
	log         zerolog.Logger
}

// NewGitHubChecker creates a checker for an "owner/repo" slug.
func NewGitHubChecker(slug string) *GitHubChecker {
	owner, repo, _ := strings.Cut(slug, "/")
	return &GitHubChecker{
		owner: owner,
		repo:  repo,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: "https://api.github.com",
		log:     zerolog.Nop(),
	}
}

// WithToken sets an optional GitHub token for authentication
func (c *GitHubChecker) WithToken(token string) *GitHubChecker {
	c.githubToken = token
	return c
}

// WithBaseURL points the checker at a different API root.
func (c *GitHubChecker) WithBaseURL(baseURL string) *GitHubChecker {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// WithLogger sets the diagnostic logger.
func (c *GitHubChecker) WithLogger(log zerolog.Logger) *GitHubChecker {
	c.log = log
	return c
}

// ManualCheckURL is the human-facing page of the latest release.
func (c *GitHubChecker) ManualCheckURL() string {
	return fmt.Sprintf("https://github.com/%s/%s/releases/latest", c.owner, c.repo)
}

// Latest fetches the latest published release.
func (c *GitHubChecker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, failure.Connection("build release request", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	if c.githubToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.githubToken)
	}

	c.log.Debug().Str("url", url).Msg("fetching latest release")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, failure.Connection("fetch latest release", err)
	}
	defer resp.Body.Close()

	c.log.Debug().Int("status", resp.StatusCode).Msg("release index responded")

	if resp.StatusCode != http.StatusOK {
		return nil, failure.Connection("fetch latest release",
			fmt.Errorf("GitHub API returned status %d", resp.StatusCode))
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, failure.Parse("decode latest release", err)
	}

	return &release, nil
}
