package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/imranansari/vercel-deploy-wf/actions"
	"github.com/imranansari/vercel-deploy-wf/config"
	"github.com/imranansari/vercel-deploy-wf/logging"
	"github.com/imranansari/vercel-deploy-wf/waiter"
	"github.com/imranansari/vercel-deploy-wf/workflows"
)

func newWorkflowCmd(f *flags) *cobra.Command {
	var workflowID string

	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Run the wait as a Temporal workflow and publish its result",
		Long: `Starts VercelDeploymentWorkflow on the configured task queue, waits for it
to complete and sets the same step outputs as the in-process wait. A worker
(see worker/) must be polling the task queue.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			action := githubactions.New()
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				actions.Fail(action, log.Logger, err)
				return err
			}
			return runWorkflow(cmd.Context(), cfg, action, workflowID)
		},
	}

	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "workflow id, defaults to vercel-wait-<commit>-<timestamp>")
	return cmd
}

// workflowInput builds the workflow input from the action inputs. The
// repository is passed along only when the worker side can report to GitHub.
func workflowInput(cfg *config.Config, action *githubactions.Action) workflows.DeploymentWorkflowInput {
	input := workflows.DeploymentWorkflowInput{
		TeamID:       cfg.Input.VercelTeamID,
		ProjectID:    cfg.Input.VercelProjectID,
		CommitSHA:    cfg.Input.CommitHash,
		Target:       cfg.Input.VercelTarget,
		PollInterval: cfg.Input.PollInterval,
		RetryDelay:   cfg.Input.RetryDelay,
		LogURL:       runURL(action),
	}
	if cfg.GitHub.ReportingEnabled() {
		if owner, repo, err := cfg.GitHub.OwnerRepo(); err == nil {
			input.GithubOwner = owner
			input.GithubRepo = repo
		}
	}
	return input
}

func runWorkflow(ctx context.Context, cfg *config.Config, action *githubactions.Action, workflowID string) error {
	logger := logging.WaiterLogger(cfg.Input.CommitHash)

	if err := cfg.ValidateAction(); err != nil {
		actions.Fail(action, logger, err)
		return err
	}

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		actions.Fail(action, logger, fmt.Errorf("failed to create Temporal client: %w", err))
		return err
	}
	defer temporalClient.Close()

	if workflowID == "" {
		workflowID = fmt.Sprintf("vercel-wait-%s-%s", cfg.Input.CommitHash, time.Now().UTC().Format("20060102-150405"))
	}

	timeout := workflows.WorkflowTimeout
	if cfg.Input.Timeout > 0 {
		timeout = cfg.Input.Timeout
	}

	workflowRun, err := temporalClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       workflowID,
		TaskQueue:                cfg.Temporal.TaskQueue,
		WorkflowExecutionTimeout: timeout,
	}, workflows.VercelDeploymentWorkflow, workflowInput(cfg, action))
	if err != nil {
		actions.Fail(action, logger, fmt.Errorf("failed to start workflow: %w", err))
		return err
	}

	wfLogger := logging.WorkflowLogger(workflowRun.GetID(), workflowRun.GetRunID())
	wfLogger.Info().
		Str("task_queue", cfg.Temporal.TaskQueue).
		Dur("timeout", timeout).
		Msg("Workflow started, waiting for completion")

	var result workflows.DeploymentWorkflowResult
	if err := workflowRun.Get(ctx, &result); err != nil {
		actions.Fail(action, wfLogger, err)
		return err
	}

	actions.Publish(action, &waiter.Result{
		DeploymentID: result.DeploymentID,
		URL:          result.URL,
		ReadyState:   result.ReadyState,
		Succeeded:    result.Succeeded,
		Attempts:     result.Attempts,
		Polls:        result.Polls,
	})

	wfLogger.Info().
		Str("deployment_id", result.DeploymentID).
		Str("url", result.URL).
		Str("ready_state", result.ReadyState.String()).
		Int64("github_deployment_id", result.GitHubDeploymentID).
		Int("report_failures", result.ReportFailures).
		Str("duration", result.TotalDuration).
		Msg("Workflow completed")

	if result.ReportFailures > 0 {
		action.Warningf("Workflow %s could not report the GitHub deployment status", workflowRun.GetID())
	}
	return nil
}
