package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `{
	"reddit_user": "stylebot",
	"reddit_pass": "hunter2",
	"subreddit": "example",
	"about_bot": "subsync:v1.0",
	"reddit_id": "client-id",
	"reddit_secret": "client-secret",
	"redirect_uri": "http://localhost:8080",
	"github_owner": "octo",
	"github_repo": "style",
	"stylesheet": "stylesheet.css",
	"sidebar": "sidebar.md",
	"sleep_secs": 60
}`

func getProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "../.."
	}
	// Walk up until we find go.mod
	for dir != "/" {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		dir = filepath.Dir(dir)
	}
	return "../.."
}

// buildBinary returns SUBSYNC_BINARY when set, otherwise builds cmd/subsync
func buildBinary(t *testing.T) string {
	t.Helper()
	if binaryPath := os.Getenv("SUBSYNC_BINARY"); binaryPath != "" {
		return binaryPath
	}

	binaryPath := filepath.Join(t.TempDir(), "subsync-test")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/subsync")
	buildCmd.Dir = getProjectRoot()
	var buildOut bytes.Buffer
	buildCmd.Stdout = &buildOut
	buildCmd.Stderr = &buildOut
	if err := buildCmd.Run(); err != nil {
		t.Fatalf("Failed to build binary: %v\nOutput: %s", err, buildOut.String())
	}
	return binaryPath
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "configure.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestCLIIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping CLI build in short mode")
	}
	binaryPath := buildBinary(t)

	valid := writeConfig(t, validConfig)
	invalid := writeConfig(t, `{"reddit_user": "stylebot"}`)

	tests := []struct {
		name        string
		args        []string
		env         []string
		expectError bool
		expected    string
	}{
		{
			name:     "no arguments (shows help)",
			args:     []string{},
			expected: "subsync",
		},
		{
			name:     "help command",
			args:     []string{"--help"},
			expected: "SUBSYNC_<KEY>",
		},
		{
			name:     "run help",
			args:     []string{"run", "--help"},
			expected: "SIGTERM",
		},
		{
			name:     "once help",
			args:     []string{"once", "--help"},
			expected: "non-zero",
		},
		{
			name:     "validate valid file",
			args:     []string{"validate", "--config", valid},
			expected: "Configuration is valid",
		},
		{
			name:        "validate invalid file",
			args:        []string{"validate", "--config", invalid},
			expectError: true,
			expected:    "subreddit",
		},
		{
			name:     "environment fills missing keys",
			args:     []string{"validate", "--config", writeConfig(t, `{"sleep_secs": 30}`)},
			env:      envFromConfig(),
			expected: "Configuration is valid",
		},
		{
			name:        "once refuses invalid file",
			args:        []string{"once", "--config", invalid},
			expectError: true,
			expected:    "invalid configuration",
		},
		{
			name:        "init without a terminal",
			args:        []string{"init", "--config", filepath.Join(t.TempDir(), "new.json")},
			expectError: true,
			expected:    "interactive terminal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, tt.args...)
			cmd.Env = append(os.Environ(), tt.env...)
			cmd.Stdin = nil
			var out bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &out

			err := cmd.Run()
			if tt.expectError {
				assert.Error(t, err, "output: %s", out.String())
			} else {
				assert.NoError(t, err, "output: %s", out.String())
			}
			assert.Contains(t, out.String(), tt.expected)
		})
	}
}

func envFromConfig() []string {
	return []string{
		"SUBSYNC_REDDIT_USER=stylebot",
		"SUBSYNC_REDDIT_PASS=hunter2",
		"SUBSYNC_SUBREDDIT=example",
		"SUBSYNC_ABOUT_BOT=subsync:v1.0",
		"SUBSYNC_REDDIT_ID=client-id",
		"SUBSYNC_REDDIT_SECRET=client-secret",
		"SUBSYNC_REDIRECT_URI=http://localhost:8080",
		"SUBSYNC_GITHUB_OWNER=octo",
		"SUBSYNC_GITHUB_REPO=style",
		"SUBSYNC_STYLESHEET=stylesheet.css",
		"SUBSYNC_SIDEBAR=sidebar.md",
	}
}
