package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single sync cycle and exit",
	Long: `Authenticate with Reddit and run one sync cycle from an empty state.

Because nothing is remembered between runs, the stylesheet and sidebar are
always pushed. The command exits non-zero if any step of the cycle failed,
which makes it suitable for cron jobs and CI pipelines.

Examples:
  subsync once
  subsync once --config subsync.yaml`,
	Args: cobra.NoArgs,
	RunE: runOnce,
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := commandContext(cmd)
	u, err := newUpdater(ctx, cfg, log)
	if err != nil {
		return err
	}

	_, report := u.Once(ctx)
	if err := report.Err(); err != nil {
		return fmt.Errorf("sync cycle failed: %w", err)
	}

	return nil
}
