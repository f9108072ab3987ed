// Package updater keeps a subreddit's stylesheet and sidebar in sync with a
// GitHub repository.
//
// An Updater polls GitHub for the newest commit, pulls the local clone when it
// changes, and pushes the stylesheet and sidebar files whenever their
// checksums drift from what was last pushed. Every step is fault isolated: a
// failed step is logged and its State field is left alone so the next cycle
// retries it.
package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"subsync/pkg/checksum"
	"subsync/pkg/config"
	"subsync/pkg/syncerr"
)

// State is what the updater last synced successfully. The zero value forces
// a full resync.
type State struct {
	LastCommit     string `json:"last_commit"`
	StylesheetHash string `json:"stylesheet_hash"`
	SidebarHash    string `json:"sidebar_hash"`
}

// CommitSource reports the newest commit of a remote repository
type CommitSource interface {
	LatestCommit(ctx context.Context, owner, repo, branch string) (string, error)
}

// Puller updates the local working copy
type Puller interface {
	Pull(ctx context.Context) (string, error)
}

// Publisher writes subreddit configuration
type Publisher interface {
	PushStylesheet(ctx context.Context, subreddit string, content []byte) error
	WriteWikiPage(ctx context.Context, subreddit, page string, content []byte, reason string) error
}

// Session is an authenticated Publisher
type Session interface {
	Publisher
	Valid() bool
}

// Authenticator opens Reddit sessions
type Authenticator interface {
	Authenticate(ctx context.Context) (Session, error)
}

// AuthenticatorFunc adapts a function to Authenticator
type AuthenticatorFunc func(ctx context.Context) (Session, error)

// Authenticate calls f
func (f AuthenticatorFunc) Authenticate(ctx context.Context) (Session, error) {
	return f(ctx)
}

// Observer is told about every finished cycle
type Observer interface {
	ObserveCycle(report Report)
}

// Updater owns the poll loop
type Updater struct {
	config   *config.Config
	commits  CommitSource
	puller   Puller
	auth     Authenticator
	log      *zap.SugaredLogger
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// Option customizes an Updater
type Option func(*Updater)

// WithObserver registers an observer for cycle reports
func WithObserver(o Observer) Option {
	return func(u *Updater) {
		u.observer = o
	}
}

// WithSleep replaces the sleep between cycles
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(u *Updater) {
		u.sleep = sleep
	}
}

// WithClock replaces the clock used for status lines and reports
func WithClock(now func() time.Time) Option {
	return func(u *Updater) {
		u.now = now
	}
}

// New creates an Updater
func New(cfg *config.Config, commits CommitSource, puller Puller, auth Authenticator, log *zap.SugaredLogger, opts ...Option) *Updater {
	u := &Updater{
		config:  cfg,
		commits: commits,
		puller:  puller,
		auth:    auth,
		log:     log,
		sleep:   sleepContext,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// CheckAndSync runs one decision pass against state and returns the updated
// state with a report of what happened. A nil session makes both Reddit steps
// fail without advancing state.
func (u *Updater) CheckAndSync(ctx context.Context, state State, session Publisher) (State, Report) {
	report := Report{
		ID:      uuid.NewString(),
		Started: u.now(),
	}
	defer func() {
		report.Finished = u.now()
		if u.observer != nil {
			u.observer.ObserveCycle(report)
		}
	}()

	newest, err := u.commits.LatestCommit(ctx, u.config.GitHubOwner, u.config.GitHubRepo, u.config.Branch)
	if err != nil {
		u.fault(&report, StepCommit, "There was an error checking the Github API.", err)
		return state, report
	}
	report.Newest = newest

	if newest != state.LastCommit {
		u.status(&report, "Syncing local repo to GitHub.")
		head, err := u.puller.Pull(ctx)
		if err != nil {
			u.fault(&report, StepPull, "There was an error pulling from github.", err)
		} else {
			state.LastCommit = newest
			report.Pulled = true
			u.log.Debugw("Local repo synced.", "cycle", report.ID, "head", head, "newest", newest)
		}
	} else {
		u.status(&report, "No new GitHub commits.")
	}

	state.StylesheetHash = u.syncFile(&report, fileStep{
		step:     StepStylesheet,
		path:     u.config.Stylesheet,
		current:  state.StylesheetHash,
		updating: "Updating subreddit stylesheet.",
		upToDate: "Stylesheet is up to date. Do not update.",
		failure:  "There was an error updating the stylesheet.",
		push: func(content []byte) error {
			return session.PushStylesheet(ctx, u.config.Subreddit, content)
		},
	}, session != nil)

	state.SidebarHash = u.syncFile(&report, fileStep{
		step:     StepSidebar,
		path:     u.config.Sidebar,
		current:  state.SidebarHash,
		updating: "Updating subreddit sidebar.",
		upToDate: "Sidebar is up to date. Do not update.",
		failure:  "There was an error updating the sidebar file.",
		push: func(content []byte) error {
			return session.WriteWikiPage(ctx, u.config.Subreddit, u.sidebarPage(), content, "")
		},
	}, session != nil)

	return state, report
}

type fileStep struct {
	step     Step
	path     string
	current  string
	updating string
	upToDate string
	failure  string
	push     func(content []byte) error
}

// syncFile pushes the file when its checksum differs from current and returns
// the checksum that is now live on Reddit
func (u *Updater) syncFile(report *Report, s fileStep, haveSession bool) string {
	content, sum, err := checksum.ReadFile(s.path)
	if err != nil {
		u.fault(report, s.step, s.failure, err)
		return s.current
	}

	if sum == s.current {
		u.status(report, s.upToDate)
		return s.current
	}

	u.status(report, s.updating)
	if !haveSession {
		u.fault(report, s.step, s.failure, syncerr.Auth("reddit session", "not authenticated with Reddit", nil))
		return s.current
	}

	if err := s.push(content); err != nil {
		u.fault(report, s.step, s.failure, err)
		return s.current
	}

	report.markPushed(s.step)
	return sum
}

func (u *Updater) sidebarPage() string {
	if u.config.SidebarPage == "" {
		return config.DefaultSidebarPage
	}
	return u.config.SidebarPage
}

func (u *Updater) status(report *Report, msg string) {
	u.log.Infow(msg, "cycle", report.ID)
}

func (u *Updater) fault(report *Report, step Step, msg string, err error) {
	report.addFault(step, err)
	u.log.Errorw(msg, "cycle", report.ID, "step", string(step), "error", err)
}

// safeCheckAndSync converts a panic in a cycle into an error so the loop survives it
func (u *Updater) safeCheckAndSync(ctx context.Context, state State, session Publisher) (next State, report Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = state
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	next, report = u.CheckAndSync(ctx, state, session)
	return next, report, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
