// Package gitsync keeps a local clone up to date with its remote.
package gitsync

import (
	"context"
	"errors"
	"fmt"

	goGit "github.com/go-git/go-git/v5"
	goGitPlumbing "github.com/go-git/go-git/v5/plumbing"
	goGitHTTP "github.com/go-git/go-git/v5/plumbing/transport/http"

	"subsync/pkg/syncerr"
)

const opPull = "git pull"

// Options configures the local working copy
type Options struct {
	// Path is the working copy, or any directory below it
	Path string
	// Remote defaults to "origin"
	Remote string
	// Branch pulls a single branch when set; otherwise the remote HEAD
	Branch string
	// Token authenticates HTTPS remotes as a GitHub access token
	Token string
}

// Repo pulls a local working copy
type Repo struct {
	opts Options
}

// New creates a Repo for the given options
func New(opts Options) *Repo {
	if opts.Path == "" {
		opts.Path = "."
	}
	if opts.Remote == "" {
		opts.Remote = goGit.DefaultRemoteName
	}
	return &Repo{opts: opts}
}

// Pull fetches and merges the remote into the working copy and returns the
// resulting HEAD hash. An already up-to-date copy is not an error.
func (r *Repo) Pull(ctx context.Context) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", syncerr.Sync(opPull, "failed to get working tree", err)
	}

	pullOptions := &goGit.PullOptions{
		RemoteName: r.opts.Remote,
	}
	if r.opts.Branch != "" {
		pullOptions.ReferenceName = goGitPlumbing.NewBranchReferenceName(r.opts.Branch)
		pullOptions.SingleBranch = true
	}
	if r.opts.Token != "" {
		pullOptions.Auth = &goGitHTTP.BasicAuth{
			Username: "x-access-token",
			Password: r.opts.Token,
		}
	}

	if err := worktree.PullContext(ctx, pullOptions); err != nil && !errors.Is(err, goGit.NoErrAlreadyUpToDate) {
		return "", syncerr.Sync(opPull, describePullError(err), err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", syncerr.Sync(opPull, "failed to get repository head after pull", err)
	}
	return head.Hash().String(), nil
}

// Head returns the current HEAD hash of the working copy
func (r *Repo) Head() (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", syncerr.Sync("git head", "failed to get repository head", err)
	}
	return head.Hash().String(), nil
}

func (r *Repo) open() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(r.opts.Path, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, syncerr.Sync(opPull, fmt.Sprintf("failed to open repository at %s", r.opts.Path), err)
	}
	return repo, nil
}

func describePullError(err error) string {
	switch {
	case errors.Is(err, goGit.ErrNonFastForwardUpdate):
		return "local branch has diverged from the remote"
	case errors.Is(err, goGit.ErrRemoteNotFound):
		return "remote is not configured"
	case errors.Is(err, goGitPlumbing.ErrReferenceNotFound):
		return "branch not found on the remote"
	default:
		return "failed to pull changes"
	}
}
