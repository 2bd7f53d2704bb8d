package workflows

import (
	"time"

	"github.com/imranansari/vercel-deploy-wf/vercel"
)

// DeploymentWorkflowInput represents the input for the Vercel deployment workflow
type DeploymentWorkflowInput struct {
	// Vercel Project Information
	TeamID    string `json:"team_id"`
	ProjectID string `json:"project_id"`
	CommitSHA string `json:"commit_sha"`
	Target    string `json:"target,omitempty"`

	// Wait tuning, zero values fall back to the defaults
	PollInterval time.Duration `json:"poll_interval,omitempty"`
	RetryDelay   time.Duration `json:"retry_delay,omitempty"`

	// GitHub Repository Information, reporting is skipped when empty
	GithubOwner string `json:"github_owner,omitempty"`
	GithubRepo  string `json:"github_repo,omitempty"`
	LogURL      string `json:"log_url,omitempty"`
}

// ReportsToGitHub reports whether the workflow records a GitHub deployment status
func (in DeploymentWorkflowInput) ReportsToGitHub() bool {
	return in.GithubOwner != "" && in.GithubRepo != ""
}

// DeploymentWorkflowResult represents the result of the deployment workflow
type DeploymentWorkflowResult struct {
	DeploymentID  string            `json:"deployment_id"`
	URL           string            `json:"url"`
	ReadyState    vercel.ReadyState `json:"ready_state"`
	Succeeded     bool              `json:"succeeded"`
	Attempts      int               `json:"attempts"`
	Polls         int               `json:"polls"`
	CompletedAt   time.Time         `json:"completed_at"`
	TotalDuration string            `json:"total_duration"`

	GitHubDeploymentID int64  `json:"github_deployment_id,omitempty"`
	GitHubStatus       string `json:"github_status,omitempty"`
	ReportFailures     int    `json:"report_failures"`
}
