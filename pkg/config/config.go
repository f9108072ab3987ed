package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is the configuration file read when no --config flag is given
	DefaultPath = "configure.json"

	// EnvPrefix prefixes environment variables that override file values
	EnvPrefix = "SUBSYNC"

	// DefaultSidebarPage is the wiki page that backs the subreddit sidebar
	DefaultSidebarPage = "config/sidebar"

	// RefreshEveryCycle re-authenticates with Reddit after every sleep
	RefreshEveryCycle = "cycle"
	// RefreshOnExpiry keeps the Reddit session until its token expires
	RefreshOnExpiry = "expiry"
)

// Config represents the subsync bot configuration
type Config struct {
	// Reddit credentials and target
	RedditUser   string `json:"reddit_user" yaml:"reddit_user" ini:"reddit_user" mapstructure:"reddit_user" validate:"required"`
	RedditPass   string `json:"reddit_pass" yaml:"reddit_pass" ini:"reddit_pass" mapstructure:"reddit_pass" validate:"required"`
	Subreddit    string `json:"subreddit" yaml:"subreddit" ini:"subreddit" mapstructure:"subreddit" validate:"required"`
	AboutBot     string `json:"about_bot" yaml:"about_bot" ini:"about_bot" mapstructure:"about_bot" validate:"required"`
	RedditID     string `json:"reddit_id" yaml:"reddit_id" ini:"reddit_id" mapstructure:"reddit_id" validate:"required"`
	RedditSecret string `json:"reddit_secret" yaml:"reddit_secret" ini:"reddit_secret" mapstructure:"reddit_secret" validate:"required"`
	RedirectURI  string `json:"redirect_uri" yaml:"redirect_uri" ini:"redirect_uri" mapstructure:"redirect_uri" validate:"required"`

	// GitHub source repository
	GitHubOwner string `json:"github_owner" yaml:"github_owner" ini:"github_owner" mapstructure:"github_owner" validate:"required"`
	GitHubRepo  string `json:"github_repo" yaml:"github_repo" ini:"github_repo" mapstructure:"github_repo" validate:"required"`

	// Local files pushed to the subreddit
	Stylesheet string `json:"stylesheet" yaml:"stylesheet" ini:"stylesheet" mapstructure:"stylesheet" validate:"required"`
	Sidebar    string `json:"sidebar" yaml:"sidebar" ini:"sidebar" mapstructure:"sidebar" validate:"required"`

	// SleepSecs is a pointer so a missing key is told apart from 0
	SleepSecs *int `json:"sleep_secs" yaml:"sleep_secs" ini:"sleep_secs" mapstructure:"sleep_secs" validate:"required,gte=0"`

	// Optional settings
	RepoPath       string `json:"repo_path,omitempty" yaml:"repo_path,omitempty" ini:"repo_path,omitempty" mapstructure:"repo_path"`
	Branch         string `json:"branch,omitempty" yaml:"branch,omitempty" ini:"branch,omitempty" mapstructure:"branch"`
	GitHubToken    string `json:"github_token,omitempty" yaml:"github_token,omitempty" ini:"github_token,omitempty" mapstructure:"github_token"`
	GitHubAPIURL   string `json:"github_api_url,omitempty" yaml:"github_api_url,omitempty" ini:"github_api_url,omitempty" mapstructure:"github_api_url" validate:"omitempty,url"`
	SidebarPage    string `json:"sidebar_page,omitempty" yaml:"sidebar_page,omitempty" ini:"sidebar_page,omitempty" mapstructure:"sidebar_page"`
	SessionRefresh string `json:"session_refresh,omitempty" yaml:"session_refresh,omitempty" ini:"session_refresh,omitempty" mapstructure:"session_refresh" validate:"omitempty,oneof=cycle expiry"`
}

// LoadConfig loads configuration from the default location
func LoadConfig() (*Config, error) {
	return LoadConfigFromPath(DefaultPath)
}

// LoadConfigFromPath loads configuration from a specific path, applies
// environment overrides and defaults. The result is not validated.
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	return config, nil
}

// Parse decodes configuration data in the given format ("json", "yaml" or "ini")
func Parse(data []byte, format string) (*Config, error) {
	var config Config

	switch format {
	case "json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case "ini":
		f, err := ini.Load(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if err := f.Section(ini.DefaultSection).MapTo(&config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	return &config, nil
}

// ApplyEnvOverrides replaces values with SUBSYNC_<KEY> environment variables when set
func (c *Config) ApplyEnvOverrides() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range Keys() {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// ApplyDefaults fills optional settings that were left empty
func (c *Config) ApplyDefaults() {
	if c.RepoPath == "" {
		c.RepoPath = "."
	}
	if c.SidebarPage == "" {
		c.SidebarPage = DefaultSidebarPage
	}
	if c.SessionRefresh == "" {
		c.SessionRefresh = RefreshEveryCycle
	}
}

// SaveConfigToPath saves configuration to a specific path, in the format implied by its extension
func (c *Config) SaveConfigToPath(path string) error {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	switch formatOf(path) {
	case "json":
		data, err = json.MarshalIndent(c, "", "    ")
	case "ini":
		f := ini.Empty()
		if err = f.Section(ini.DefaultSection).ReflectFrom(c); err == nil {
			var sb strings.Builder
			_, err = f.WriteTo(&sb)
			data = []byte(sb.String())
		}
	default:
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file carries credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	var errs ValidationErrors
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), describeValue(fe), describeRule(fe))
	}
	return errs
}

// Sleep returns sleep_secs, or 0 when it is unset
func (c *Config) Sleep() int {
	if c.SleepSecs == nil {
		return 0
	}
	return *c.SleepSecs
}

// PollInterval returns the configured sleep between cycles
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sleep()) * time.Second
}

// RepoURL returns the browser URL of the GitHub repository
func (c *Config) RepoURL() string {
	return fmt.Sprintf("https://github.com/%s/%s", c.GitHubOwner, c.GitHubRepo)
}

// Redacted returns a copy with credentials masked, suitable for printing
func (c *Config) Redacted() *Config {
	out := *c
	for _, s := range []*string{&out.RedditPass, &out.RedditSecret, &out.GitHubToken} {
		if *s != "" {
			*s = "********"
		}
	}
	return &out
}

// Keys returns the configuration keys in declaration order
func Keys() []string {
	t := reflect.TypeOf(Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".ini":
		return "ini"
	default:
		return "json"
	}
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func describeValue(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return ""
	}
	return fmt.Sprint(fe.Value())
}
