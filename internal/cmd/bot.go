package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"subsync/internal/logging"
	"subsync/internal/metrics"
	"subsync/pkg/config"
	"subsync/pkg/github"
	"subsync/pkg/gitsync"
	"subsync/pkg/reddit"
	"subsync/pkg/updater"
)

// loadConfig reads and validates the configuration at path
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path == config.DefaultPath {
		cfg, err = config.LoadConfig()
	} else {
		cfg, err = config.LoadConfigFromPath(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return cfg, nil
}

func newLogger(w io.Writer) (*zap.SugaredLogger, error) {
	return logging.New(logFormat, zapcore.AddSync(w), verbose)
}

// redditOptions are applied to every Reddit authenticator the commands build
var redditOptions []reddit.Option

func newRedditAuthenticator(cfg *config.Config) *reddit.Authenticator {
	return reddit.NewAuthenticator(reddit.Credentials{
		ClientID:     cfg.RedditID,
		ClientSecret: cfg.RedditSecret,
		Username:     cfg.RedditUser,
		Password:     cfg.RedditPass,
		UserAgent:    cfg.AboutBot,
		RedirectURI:  cfg.RedirectURI,
	}, redditOptions...)
}

// redditAuthenticator adapts the Reddit password grant to the updater
func redditAuthenticator(cfg *config.Config) updater.Authenticator {
	auth := newRedditAuthenticator(cfg)

	return updater.AuthenticatorFunc(func(ctx context.Context) (updater.Session, error) {
		session, err := auth.Authenticate(ctx)
		if err != nil {
			return nil, err
		}
		return session, nil
	})
}

func newGitHubClient(cfg *config.Config) (*github.Client, error) {
	if cfg.GitHubAPIURL == "" {
		return github.NewClient(cfg.GitHubToken), nil
	}

	client, err := github.NewClientWithBaseURL(cfg.GitHubAPIURL, cfg.GitHubToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return client, nil
}

// newUpdater wires the adapters for cfg. When --metrics-addr is set it also
// starts the metrics listener, which stops with ctx.
func newUpdater(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*updater.Updater, error) {
	commits, err := newGitHubClient(cfg)
	if err != nil {
		return nil, err
	}

	repo := newRepo(cfg)

	var opts []updater.Option
	if metricsAddr != "" {
		recorder := metrics.NewRecorder()
		opts = append(opts, updater.WithObserver(recorder))
		go func() {
			if err := recorder.Serve(ctx, metricsAddr, log); err != nil {
				log.Errorw("Metrics listener stopped.", "addr", metricsAddr, "error", err)
			}
		}()
	}

	return updater.New(cfg, commits, repo, redditAuthenticator(cfg), log, opts...), nil
}

func newRepo(cfg *config.Config) *gitsync.Repo {
	return gitsync.New(gitsync.Options{
		Path:   cfg.RepoPath,
		Branch: cfg.Branch,
		Token:  cfg.GitHubToken,
	})
}
