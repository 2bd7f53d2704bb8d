package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"

	"github.com/imranansari/vercel-deploy-wf/actions"
	"github.com/imranansari/vercel-deploy-wf/config"
	githubClient "github.com/imranansari/vercel-deploy-wf/github"
	"github.com/imranansari/vercel-deploy-wf/logging"
	"github.com/imranansari/vercel-deploy-wf/vercel"
	"github.com/imranansari/vercel-deploy-wf/waiter"
)

type flags struct {
	teamID       string
	projectID    string
	commit       string
	target       string
	pollInterval time.Duration
	retryDelay   time.Duration
	timeout      time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "vercel-wait",
		Short: "Wait for the Vercel deployment of a commit and publish its URL",
		Long: `Finds the Vercel deployment created for a commit, waits for its build to
finish and sets the deployment_url step output. Inputs are read from the
INPUT_* variables the Actions runner provides; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			action := githubactions.New()
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				actions.Fail(action, log.Logger, err)
				return err
			}
			return runAction(cmd.Context(), cfg, action)
		},
	}

	bindFlags(cmd, f)
	cmd.AddCommand(newWorkflowCmd(f))
	return cmd
}

func bindFlags(cmd *cobra.Command, f *flags) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.teamID, "team-id", "", "Vercel team id (INPUT_VERCEL_TEAM_ID)")
	pf.StringVar(&f.projectID, "project-id", "", "Vercel project id (INPUT_VERCEL_PROJECT_ID)")
	pf.StringVar(&f.commit, "commit", "", "commit hash to wait for (INPUT_COMMIT_HASH)")
	pf.StringVar(&f.target, "target", "", "deployment target: production, preview or staging (INPUT_VERCEL_TARGET)")
	pf.DurationVar(&f.pollInterval, "poll-interval", waiter.DefaultPollInterval, "delay between build checks (INPUT_POLL_INTERVAL)")
	pf.DurationVar(&f.retryDelay, "retry-delay", waiter.DefaultRetryDelay, "delay before searching again when nothing was found (INPUT_RETRY_DELAY)")
	pf.DurationVar(&f.timeout, "timeout", 0, "give up after this long, 0 waits indefinitely (INPUT_TIMEOUT)")
}

// loadConfig reads the environment and applies the flags that were set
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("team-id") {
		cfg.Input.VercelTeamID = f.teamID
	}
	if changed("project-id") {
		cfg.Input.VercelProjectID = f.projectID
	}
	if changed("commit") {
		cfg.Input.CommitHash = f.commit
	}
	if changed("target") {
		cfg.Input.VercelTarget = f.target
	}
	if changed("poll-interval") {
		cfg.Input.PollInterval = f.pollInterval
	}
	if changed("retry-delay") {
		cfg.Input.RetryDelay = f.retryDelay
	}
	if changed("timeout") {
		cfg.Input.Timeout = f.timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	return cfg, nil
}

// runAction waits in-process and publishes the result as step outputs
func runAction(ctx context.Context, cfg *config.Config, action *githubactions.Action) error {
	logger := logging.WaiterLogger(cfg.Input.CommitHash)

	if err := cfg.ValidateAction(); err != nil {
		actions.Fail(action, logger, err)
		return err
	}

	if cfg.Input.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Input.Timeout)
		defer cancel()
	}

	client, err := vercel.NewClientFromConfig(cfg.Input.VercelAccessToken, cfg.Vercel, logging.VercelLogger())
	if err != nil {
		actions.Fail(action, logger, err)
		return err
	}

	rt := waiter.NewDirect(ctx, client, vercel.ListOptions{
		TeamID:    cfg.Input.VercelTeamID,
		ProjectID: cfg.Input.VercelProjectID,
		Target:    cfg.Input.VercelTarget,
	})

	res, err := waiter.Wait(rt, actions.NewNotifier(action, logger), cfg.Input.CommitHash, waiter.Options{
		PollInterval: cfg.Input.PollInterval,
		RetryDelay:   cfg.Input.RetryDelay,
	})
	if err != nil {
		actions.Fail(action, logger, err)
		return err
	}

	actions.Publish(action, res)

	logger.Info().
		Str("deployment_id", res.DeploymentID).
		Str("url", res.URL).
		Str("ready_state", res.ReadyState.String()).
		Int("attempts", res.Attempts).
		Int("polls", res.Polls).
		Msg("Vercel deployment finished")

	if cfg.GitHub.ReportingEnabled() {
		reportToGitHub(ctx, cfg, action, logger, res)
	}
	return nil
}

// reportToGitHub records the result on the commit. Failures are surfaced as
// warnings only, the step outputs are already set.
func reportToGitHub(ctx context.Context, cfg *config.Config, action *githubactions.Action, logger zerolog.Logger, res *waiter.Result) {
	owner, repo, err := cfg.GitHub.OwnerRepo()
	if err != nil {
		action.Warningf("Skipping GitHub deployment status: %s", err)
		return
	}

	factory := githubClient.NewClientFactory(cfg.GitHub, cfg.Secrets.GitHubPrivateKey, logging.GitHubLogger())
	reporter := githubClient.NewReporter(factory, logging.GitHubLogger())

	_, err = reporter.Report(ctx, githubClient.DeploymentReport{
		Owner:              owner,
		Repo:               repo,
		CommitSHA:          cfg.Input.CommitHash,
		Environment:        cfg.Input.VercelTarget,
		EnvironmentURL:     res.URL,
		LogURL:             runURL(action),
		VercelDeploymentID: res.DeploymentID,
		ReadyState:         res.ReadyState,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to report GitHub deployment status")
		action.Warningf("Failed to report GitHub deployment status: %s", err)
	}
}

// runURL links to the current Actions run, or is empty outside a runner
func runURL(action *githubactions.Action) string {
	ghctx, err := action.Context()
	if err != nil || ghctx.RunID == 0 || ghctx.Repository == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/actions/runs/%d", ghctx.ServerURL, ghctx.Repository, ghctx.RunID)
}
