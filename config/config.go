package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/imranansari/vercel-deploy-wf/secrets"
)

// Config holds all configuration for the application
type Config struct {
	// Action inputs, as exposed by the runner (INPUT_<NAME>)
	Input InputConfig `envPrefix:"INPUT_"`

	// Vercel API client settings
	Vercel VercelConfig `envPrefix:"VERCEL_"`

	// Temporal Configuration
	Temporal TemporalConfig `envPrefix:"TEMPORAL_"`

	// GitHub Configuration (optional deployment status reporting)
	GitHub GitHubConfig `envPrefix:"GITHUB_"`

	// Application Configuration
	App AppConfig `envPrefix:"APP_"`

	// Secrets (loaded from files)
	Secrets SecretsConfig
}

type InputConfig struct {
	VercelTeamID      string        `env:"VERCEL_TEAM_ID"`
	VercelProjectID   string        `env:"VERCEL_PROJECT_ID"`
	VercelAccessToken string        `env:"VERCEL_ACCESS_TOKEN"`
	CommitHash        string        `env:"COMMIT_HASH"`
	VercelTarget      string        `env:"VERCEL_TARGET"`
	PollInterval      time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	RetryDelay        time.Duration `env:"RETRY_DELAY" envDefault:"5s"`
	// Zero leaves the wait unbounded; the runner's step timeout still applies
	Timeout time.Duration `env:"TIMEOUT" envDefault:"0s"`
}

type VercelConfig struct {
	APIURL          string        `env:"API_URL" envDefault:"https://api.vercel.com"`
	RetryMax        int           `env:"RETRY_MAX" envDefault:"2"`
	RetryWait       time.Duration `env:"RETRY_WAIT" envDefault:"1s"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	AccessTokenFile string        `env:"ACCESS_TOKEN_FILE"`
}

type TemporalConfig struct {
	HostPort      string        `env:"HOST" envDefault:"localhost:7233"`
	Namespace     string        `env:"NAMESPACE" envDefault:"default"`
	TaskQueue     string        `env:"TASK_QUEUE" envDefault:"vercel-deployment-waiter"`
	WorkerOptions WorkerOptions `envPrefix:"WORKER_"`
}

type WorkerOptions struct {
	MaxConcurrentActivityExecutionSize     int  `env:"MAX_CONCURRENT_ACTIVITY" envDefault:"20"`
	MaxConcurrentWorkflowTaskExecutionSize int  `env:"MAX_CONCURRENT_WORKFLOW" envDefault:"10"`
	EnableLoggingInReplay                  bool `env:"ENABLE_LOGGING_REPLAY" envDefault:"false"`
}

type GitHubConfig struct {
	// GitHub App ID (same for both GitHub.com and Enterprise). Zero disables reporting.
	AppID int64 `env:"APP_ID"`

	// Set GITHUB_ENTERPRISE_URL to report to Enterprise GitHub
	EnterpriseURL string `env:"ENTERPRISE_URL"`

	// owner/repo, set by the Actions runner
	Repository string `env:"REPOSITORY"`

	PrivateKeyPath string `env:"PRIVATE_KEY_PATH" envDefault:".private/github-app.private-key.pem"`
}

type AppConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`
}

type SecretsConfig struct {
	GitHubPrivateKey []byte
}

// Load loads configuration from environment variables and files
func Load() (*Config, error) {
	// Load .env file if exists (for local development)
	_ = godotenv.Load()

	return parse(env.Options{})
}

// LoadFromEnvironment loads configuration from the given variables instead of
// the process environment
func LoadFromEnvironment(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}

	// Parse environment variables using caarlos0/env
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	// Load secrets from files
	if err := loadSecrets(cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadSecrets loads secrets from files
func loadSecrets(cfg *Config) error {
	if cfg.Input.VercelAccessToken == "" && cfg.Vercel.AccessTokenFile != "" {
		token, err := secrets.LoadToken(cfg.Vercel.AccessTokenFile)
		if err != nil {
			return fmt.Errorf("failed to load Vercel access token: %w", err)
		}
		cfg.Input.VercelAccessToken = token
	}

	if cfg.GitHub.AppID != 0 {
		privateKey, err := secrets.LoadFromFile(cfg.GitHub.PrivateKeyPath)
		if err != nil {
			return fmt.Errorf("failed to load GitHub App private key: %w", err)
		}
		cfg.Secrets.GitHubPrivateKey = privateKey
	}

	return nil
}

// Validate checks the settings every mode depends on
func (c *Config) Validate() error {
	if c.Input.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Input.PollInterval)
	}
	if c.Input.RetryDelay < 0 {
		return fmt.Errorf("retry delay must not be negative, got %s", c.Input.RetryDelay)
	}
	if c.Input.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Input.Timeout)
	}
	if !IsValidTarget(c.Input.VercelTarget) {
		return fmt.Errorf("vercel target %q must be one of %s", c.Input.VercelTarget, strings.Join(ValidTargets(), ", "))
	}
	if c.Vercel.RetryMax < 0 {
		return fmt.Errorf("vercel retry max must not be negative, got %d", c.Vercel.RetryMax)
	}
	if c.GitHub.AppID != 0 {
		if _, _, err := c.GitHub.OwnerRepo(); err != nil {
			return err
		}
		if len(c.Secrets.GitHubPrivateKey) == 0 {
			return fmt.Errorf("GitHub App private key is required")
		}
	}
	return nil
}

// ValidateAction checks the inputs a single action run requires
func (c *Config) ValidateAction() error {
	var missing []string
	if c.Input.VercelTeamID == "" {
		missing = append(missing, "vercel_team_id")
	}
	if c.Input.VercelProjectID == "" {
		missing = append(missing, "vercel_project_id")
	}
	if c.Input.VercelAccessToken == "" {
		missing = append(missing, "vercel_access_token")
	}
	if c.Input.CommitHash == "" {
		missing = append(missing, "commit_hash")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required input(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateWorker checks the settings a workflow worker requires. Team,
// project and commit arrive with each workflow instead.
func (c *Config) ValidateWorker() error {
	if c.Input.VercelAccessToken == "" {
		return fmt.Errorf("Vercel access token is required (INPUT_VERCEL_ACCESS_TOKEN or VERCEL_ACCESS_TOKEN_FILE)")
	}
	return nil
}

// ReportingEnabled reports whether deployment statuses are sent to GitHub
func (g GitHubConfig) ReportingEnabled() bool {
	return g.AppID != 0
}

// OwnerRepo splits Repository into its owner and name
func (g GitHubConfig) OwnerRepo() (string, string, error) {
	owner, repo, ok := strings.Cut(g.Repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("GitHub repository %q must be in owner/repo form", g.Repository)
	}
	return owner, repo, nil
}
