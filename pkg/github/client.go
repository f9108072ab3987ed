package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"subsync/pkg/syncerr"
)

const opLatestCommit = "latest commit"

// Client queries the GitHub REST API for repository commit status
type Client struct {
	client *github.Client
	rate   github.Rate
}

// NewClient creates a GitHub API client. An empty token makes unauthenticated
// requests, which GitHub rate limits per IP.
func NewClient(token string) *Client {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		hc = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		client: github.NewClient(hc),
	}
}

// NewClientWithBaseURL creates a client against a GitHub Enterprise or test API root
func NewClientWithBaseURL(baseURL, token string) (*Client, error) {
	c := NewClient(token)
	if baseURL == "" {
		return c, nil
	}

	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
	}
	c.client.BaseURL = u

	return c, nil
}

// LatestCommit returns the SHA of the newest commit on branch, or on the
// repository's default branch when branch is empty
func (c *Client) LatestCommit(ctx context.Context, owner, repo, branch string) (string, error) {
	opts := &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: 1},
	}

	commits, resp, err := c.client.Repositories.ListCommits(ctx, owner, repo, opts)
	if resp != nil {
		c.rate = resp.Rate
	}
	if err != nil {
		return "", WrapGitHubError(err, fmt.Sprintf("repository %s/%s", owner, repo))
	}

	if len(commits) == 0 {
		return "", syncerr.Malformed(opLatestCommit, "commit list is empty", nil)
	}
	sha := commits[0].GetSHA()
	if sha == "" {
		return "", syncerr.Malformed(opLatestCommit, "newest commit has no sha", nil)
	}

	return sha, nil
}

// Rate returns the rate limit reported by the last API response
func (c *Client) Rate() github.Rate {
	return c.rate
}
