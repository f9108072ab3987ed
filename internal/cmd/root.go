package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subsync/internal/logging"
	"subsync/pkg/config"
)

var (
	configPath  string
	logFormat   string
	metricsAddr string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "subsync",
	Short: "Keep a subreddit's stylesheet and sidebar in sync with a GitHub repository",
	Long: `Subsync is a polling bot that mirrors a GitHub repository into subreddit settings.

Every cycle it checks GitHub for a new commit, pulls the local clone when one
appears, and pushes the stylesheet and the sidebar wiki page to Reddit whenever
their contents changed since the last successful push.

Configuration is read from configure.json by default. Any key can be
overridden with a SUBSYNC_<KEY> environment variable, e.g. SUBSYNC_REDDIT_PASS.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the configuration file (.json, .yaml or .ini)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "Log output format: console or json")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
}
