package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/imranansari/vercel-deploy-wf/activities"
	githubClient "github.com/imranansari/vercel-deploy-wf/github"
	"github.com/imranansari/vercel-deploy-wf/waiter"
)

const (
	WorkflowTimeout = 30 * time.Minute

	FindVercelDeploymentActivity   = "FindVercelDeployment"
	GetLatestVercelBuildActivity   = "GetLatestVercelBuild"
	ReportGitHubDeploymentActivity = "ReportGitHubDeployment"
)

// VercelDeploymentWorkflow waits for the Vercel build of a commit and
// optionally records the outcome as a GitHub deployment status
func VercelDeploymentWorkflow(ctx workflow.Context, input DeploymentWorkflowInput) (*DeploymentWorkflowResult, error) {
	// Create workflow-specific logger
	logger := workflow.GetLogger(ctx)
	startTime := workflow.Now(ctx)

	// Configure activity options
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
			NonRetryableErrorTypes: []string{
				activities.ErrTypeDeploymentNotFound,
				activities.ErrTypeNoBuilds,
				activities.ErrTypeProtocol,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	logger.Info("Starting Vercel deployment workflow",
		"team_id", input.TeamID,
		"project_id", input.ProjectID,
		"commit", input.CommitSHA,
		"target", input.Target)

	// 1. Locate the deployment and wait for its build
	res, err := waiter.Wait(newActivityRuntime(ctx, input), workflowNotifier{logger: logger}, input.CommitSHA, waiter.Options{
		PollInterval: input.PollInterval,
		RetryDelay:   input.RetryDelay,
	})
	if err != nil {
		logger.Error("Waiting for Vercel deployment failed", "error", err)
		return nil, err
	}

	result := &DeploymentWorkflowResult{
		DeploymentID: res.DeploymentID,
		URL:          res.URL,
		ReadyState:   res.ReadyState,
		Succeeded:    res.Succeeded,
		Attempts:     res.Attempts,
		Polls:        res.Polls,
	}

	// 2. Record the outcome on GitHub, a failed report does not fail the wait
	if input.ReportsToGitHub() {
		report := githubClient.DeploymentReport{
			Owner:              input.GithubOwner,
			Repo:               input.GithubRepo,
			CommitSHA:          input.CommitSHA,
			Environment:        input.Target,
			EnvironmentURL:     res.URL,
			LogURL:             input.LogURL,
			VercelDeploymentID: res.DeploymentID,
			ReadyState:         res.ReadyState,
		}

		var reportResult *githubClient.ReportResult
		if err := workflow.ExecuteActivity(ctx, ReportGitHubDeploymentActivity, report).Get(ctx, &reportResult); err != nil {
			logger.Error("Failed to report GitHub deployment", "error", err)
			result.ReportFailures++
		} else {
			result.GitHubDeploymentID = reportResult.DeploymentID
			result.GitHubStatus = reportResult.State
			logger.Info("Reported GitHub deployment",
				"deployment_id", reportResult.DeploymentID,
				"state", reportResult.State)
		}
	}

	// Calculate final metrics
	endTime := workflow.Now(ctx)
	result.CompletedAt = endTime
	result.TotalDuration = endTime.Sub(startTime).String()

	logger.Info("Vercel deployment workflow completed",
		"deployment_id", result.DeploymentID,
		"url", result.URL,
		"ready_state", result.ReadyState,
		"duration", result.TotalDuration,
		"polls", result.Polls)

	return result, nil
}
