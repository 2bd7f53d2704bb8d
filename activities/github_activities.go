package activities

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	githubClient "github.com/imranansari/vercel-deploy-wf/github"
	"github.com/imranansari/vercel-deploy-wf/logging"
)

// DeploymentReporter records a deployment outcome on GitHub
type DeploymentReporter interface {
	Report(ctx context.Context, r githubClient.DeploymentReport) (*githubClient.ReportResult, error)
}

// GitHubActivities contains GitHub-related activities
type GitHubActivities struct {
	reporter DeploymentReporter
}

// NewGitHubActivities creates a new instance of GitHub activities
func NewGitHubActivities(reporter DeploymentReporter) *GitHubActivities {
	return &GitHubActivities{
		reporter: reporter,
	}
}

// ReportGitHubDeployment records the Vercel build outcome as a GitHub
// deployment status on the commit
func (a *GitHubActivities) ReportGitHubDeployment(ctx context.Context, input githubClient.DeploymentReport) (*githubClient.ReportResult, error) {
	activityInfo := activity.GetInfo(ctx)
	logger := logging.ActivityLogger("ReportGitHubDeployment", activityInfo.WorkflowExecution.ID, activityInfo.WorkflowExecution.RunID)

	logger.Info().
		Str("github_owner", input.Owner).
		Str("github_repo", input.Repo).
		Str("commit", input.CommitSHA).
		Str("ready_state", input.ReadyState.String()).
		Msg("Reporting GitHub deployment")

	// Record heartbeat
	activity.RecordHeartbeat(ctx, "Calling GitHub API")

	result, err := a.reporter.Report(ctx, input)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to report GitHub deployment")
		return nil, fmt.Errorf("failed to report deployment: %w", err)
	}

	logger.Info().
		Int64("deployment_id", result.DeploymentID).
		Str("state", result.State).
		Msg("Successfully reported GitHub deployment")

	return result, nil
}
