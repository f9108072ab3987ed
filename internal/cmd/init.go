package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"subsync/pkg/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	Long: `Prompt for the Reddit and GitHub settings and write them to the file given
by --config. The format follows the file extension (.json, .yaml or .ini).

The file holds credentials and is written with mode 0600.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

// askFunc matches survey.AskOne
type askFunc func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func runInit(cmd *cobra.Command, _ []string) error {
	if !isTerminal() {
		return errors.New("init needs an interactive terminal; write the configuration file by hand instead")
	}
	return initConfig(cmd, survey.AskOne)
}

func initConfig(cmd *cobra.Command, ask askFunc) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(configPath); err == nil {
		overwrite := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Configuration file %s already exists. Overwrite it?", configPath),
		}
		if err := ask(prompt, &overwrite); err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(out, "Configuration initialization cancelled.")
			return nil
		}
	}

	cfg, err := askConfig(ask)
	if err != nil {
		return err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.SaveConfigToPath(configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(out, "✅ Configuration file created at: %s\n", configPath)
	fmt.Fprintln(out, "💡 Run 'subsync validate --online' to check the credentials.")
	return nil
}

func askConfig(ask askFunc) (*config.Config, error) {
	cfg := &config.Config{}
	required := survey.WithValidator(survey.Required)

	questions := []struct {
		target *string
		prompt survey.Prompt
		opts   []survey.AskOpt
	}{
		{&cfg.Subreddit, &survey.Input{Message: "Subreddit (without /r/):"}, []survey.AskOpt{required}},
		{&cfg.RedditUser, &survey.Input{Message: "Reddit username:"}, []survey.AskOpt{required}},
		{&cfg.RedditPass, &survey.Password{Message: "Reddit password:"}, []survey.AskOpt{required}},
		{&cfg.RedditID, &survey.Input{Message: "Reddit app client id:"}, []survey.AskOpt{required}},
		{&cfg.RedditSecret, &survey.Password{Message: "Reddit app client secret:"}, []survey.AskOpt{required}},
		{&cfg.RedirectURI, &survey.Input{Message: "Reddit app redirect URI:", Default: "http://localhost:8080"}, []survey.AskOpt{required}},
		{&cfg.AboutBot, &survey.Input{Message: "User-Agent sent to Reddit:", Default: "subsync:v1.0"}, []survey.AskOpt{required}},
		{&cfg.GitHubOwner, &survey.Input{Message: "GitHub owner:"}, []survey.AskOpt{required}},
		{&cfg.GitHubRepo, &survey.Input{Message: "GitHub repository:"}, []survey.AskOpt{required}},
		{&cfg.RepoPath, &survey.Input{Message: "Path of the local clone:", Default: "."}, nil},
		{&cfg.Stylesheet, &survey.Input{Message: "Stylesheet file:", Default: "stylesheet.css"}, []survey.AskOpt{required}},
		{&cfg.Sidebar, &survey.Input{Message: "Sidebar file:", Default: "sidebar.md"}, []survey.AskOpt{required}},
	}

	for _, q := range questions {
		if err := ask(q.prompt, q.target, q.opts...); err != nil {
			return nil, err
		}
	}

	var sleep string
	prompt := &survey.Input{Message: "Seconds between cycles:", Default: "300"}
	if err := ask(prompt, &sleep, survey.WithValidator(nonNegativeInt)); err != nil {
		return nil, err
	}
	// validated above
	secs, _ := strconv.Atoi(sleep)
	cfg.SleepSecs = &secs

	refresh := &survey.Select{
		Message: "Reddit session refresh:",
		Options: []string{config.RefreshEveryCycle, config.RefreshOnExpiry},
		Default: config.RefreshEveryCycle,
		Description: func(value string, _ int) string {
			if value == config.RefreshOnExpiry {
				return "log in again when the token expires"
			}
			return "log in again after every sleep"
		},
	}
	if err := ask(refresh, &cfg.SessionRefresh); err != nil {
		return nil, err
	}

	return cfg, nil
}

func nonNegativeInt(ans interface{}) error {
	s, _ := ans.(string)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("%q is not a whole number of seconds", s)
	}
	return nil
}
