package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync loop until interrupted",
	Long: `Authenticate with Reddit and poll GitHub every sleep_secs seconds.

Each cycle pulls the local clone when GitHub reports a new commit and pushes
the stylesheet and sidebar when their checksums changed. Failures are logged
and retried on the next cycle. The loop stops on SIGINT or SIGTERM.

Examples:
  subsync run
  subsync run --config /etc/subsync/configure.json --log-format json
  subsync run --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runLoop,
}

func runLoop(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	u, err := newUpdater(ctx, cfg, log)
	if err != nil {
		return err
	}

	log.Debugw("Starting sync loop.", "subreddit", cfg.Subreddit, "repo", cfg.RepoURL(), "interval", cfg.PollInterval())
	if err := u.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Shutting down.")
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
