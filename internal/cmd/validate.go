package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	validateOnline bool
	validateShow   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file, apply environment overrides and check every
required key.

With --online the command also queries the GitHub commits API, reads the HEAD
of the local clone and performs a Reddit login, so credentials can be verified
before starting the bot.

Examples:
  subsync validate
  subsync validate --config subsync.yaml --show
  subsync validate --online`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateOnline, "online", false, "Also check GitHub and Reddit credentials")
	validateCmd.Flags().BoolVar(&validateShow, "show", false, "Print the effective configuration with secrets masked")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Configuration is valid: %s\n", configPath)

	if validateShow {
		data, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		fmt.Fprintf(out, "\n%s\n", data)
	}

	if !validateOnline {
		return nil
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), 30*time.Second)
	defer cancel()

	client, err := newGitHubClient(cfg)
	if err != nil {
		return err
	}
	sha, err := client.LatestCommit(ctx, cfg.GitHubOwner, cfg.GitHubRepo, cfg.Branch)
	if err != nil {
		return fmt.Errorf("failed to query GitHub: %w", err)
	}
	fmt.Fprintf(out, "✅ GitHub: %s is at %s\n", cfg.RepoURL(), sha)
	if rate := client.Rate(); rate.Limit > 0 {
		fmt.Fprintf(out, "📊 GitHub rate limit: %d of %d requests left\n", rate.Remaining, rate.Limit)
	}

	head, err := newRepo(cfg).Head()
	if err != nil {
		return fmt.Errorf("failed to read local clone: %w", err)
	}
	fmt.Fprintf(out, "✅ Local clone %s is at %s\n", cfg.RepoPath, head)

	session, err := newRedditAuthenticator(cfg).Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("failed to log in to Reddit: %w", err)
	}
	fmt.Fprintf(out, "✅ Reddit: logged in as /u/%s\n", cfg.RedditUser)
	if expiry := session.Expiry(); !expiry.IsZero() {
		fmt.Fprintf(out, "⏰ Token expires: %s\n", expiry.Format("2006-01-02 15:04:05 MST"))
	}

	return nil
}
