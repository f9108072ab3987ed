package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	goGit "github.com/go-git/go-git/v5"
	goGitObject "github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsync/pkg/config"
	"subsync/pkg/reddit"
)

// initClone creates a one-commit repository and returns its path and HEAD
func initClone(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := goGit.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stylesheet.css"), []byte("body{}"), 0600))

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add("stylesheet.css")
	require.NoError(t, err)

	hash, err := worktree.Commit("initial stylesheet", &goGit.CommitOptions{
		Author: &goGitObject.Signature{Name: "stylebot", Email: "stylebot@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir, hash.String()
}

func onlineConfig(t *testing.T, apiURL, repoPath string) string {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{
		"reddit_user":    "stylebot",
		"reddit_pass":    "hunter2",
		"subreddit":      "example",
		"about_bot":      "subsync:v1.0",
		"reddit_id":      "client-id",
		"reddit_secret":  "client-secret",
		"redirect_uri":   "http://localhost:8080",
		"github_owner":   "octo",
		"github_repo":    "style",
		"github_api_url": apiURL,
		"repo_path":      repoPath,
		"stylesheet":     "stylesheet.css",
		"sidebar":        "sidebar.md",
		"sleep_secs":     60,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "subsync.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestRunValidate_Online(t *testing.T) {
	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/style/commits", r.URL.Path)
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "57")
		w.Header().Set("X-RateLimit-Reset", "1700000000")
		fmt.Fprint(w, `[{"sha":"abc123"}]`)
	}))
	defer github.Close()

	expiresIn := 3600
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-123",
			"token_type":   "bearer",
			"expires_in":   expiresIn,
		})
	}))
	defer tokens.Close()

	previous := redditOptions
	redditOptions = []reddit.Option{reddit.WithTokenURL(tokens.URL)}
	t.Cleanup(func() { redditOptions = previous })

	clone, head := initClone(t)
	withConfigPath(t, onlineConfig(t, github.URL, clone))

	validateOnline = true
	t.Cleanup(func() { validateOnline = false })

	var out bytes.Buffer
	require.NoError(t, runValidate(newTestCommand(&out), nil))

	output := out.String()
	assert.Contains(t, output, "is at abc123")
	assert.Contains(t, output, "57 of 60 requests left")
	assert.Contains(t, output, "Local clone "+clone+" is at "+head)
	assert.Contains(t, output, "logged in as /u/stylebot")
	assert.Contains(t, output, "Token expires:")
}

func TestRunValidate_OnlineMissingClone(t *testing.T) {
	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"sha":"abc123"}]`)
	}))
	defer github.Close()

	withConfigPath(t, onlineConfig(t, github.URL, t.TempDir()))
	validateOnline = true
	t.Cleanup(func() { validateOnline = false })

	var out bytes.Buffer
	err := runValidate(newTestCommand(&out), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read local clone")
	assert.NotContains(t, out.String(), "Reddit")
}

func TestLoadConfig_DefaultPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.WriteFile(config.DefaultPath, []byte(validConfigJSON), 0600))

	cfg, err := loadConfig(config.DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, "example", cfg.Subreddit)
	assert.Equal(t, 60, cfg.Sleep())
}

func TestLoadConfig_MissingSleepRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configure.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	"reddit_user": "stylebot", "reddit_pass": "hunter2", "subreddit": "example",
	"about_bot": "subsync", "reddit_id": "id", "reddit_secret": "secret",
	"redirect_uri": "http://localhost:8080", "github_owner": "octo",
	"github_repo": "style", "stylesheet": "style.css", "sidebar": "sidebar.md"
}`), 0600))

	_, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sleep_secs")
}
