package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"

	"github.com/imranansari/vercel-deploy-wf/config"
	"github.com/imranansari/vercel-deploy-wf/vercel"
)

// GitHub deployment status states
const (
	StatusSuccess    = "success"
	StatusFailure    = "failure"
	StatusError      = "error"
	StatusInactive   = "inactive"
	StatusInProgress = "in_progress"
)

// ClientProvider returns an authenticated client for an organization
type ClientProvider interface {
	CreateClientForOrg(ctx context.Context, org string) (*github.Client, error)
}

// DeploymentReport describes a finished Vercel build to record on a commit
type DeploymentReport struct {
	Owner              string            `json:"owner"`
	Repo               string            `json:"repo"`
	CommitSHA          string            `json:"commit_sha"`
	Environment        string            `json:"environment"`
	EnvironmentURL     string            `json:"environment_url"`
	LogURL             string            `json:"log_url,omitempty"`
	VercelDeploymentID string            `json:"vercel_deployment_id"`
	ReadyState         vercel.ReadyState `json:"ready_state"`
}

// ReportResult identifies the GitHub deployment a report was recorded on
type ReportResult struct {
	DeploymentID int64  `json:"deployment_id"`
	State        string `json:"state"`
	Created      bool   `json:"created"`
}

// Reporter records Vercel build outcomes as GitHub deployment statuses
type Reporter struct {
	clients ClientProvider
	logger  zerolog.Logger
}

// NewReporter creates a reporter using clients for authentication
func NewReporter(clients ClientProvider, logger zerolog.Logger) *Reporter {
	return &Reporter{clients: clients, logger: logger}
}

// StatusForReadyState maps a Vercel build state onto a GitHub deployment
// status state
func StatusForReadyState(s vercel.ReadyState) string {
	switch s {
	case vercel.ReadyStateReady, vercel.ReadyStateQueued:
		return StatusSuccess
	case vercel.ReadyStateError:
		return StatusFailure
	case vercel.ReadyStateCanceled:
		return StatusError
	case vercel.ReadyStateArchived:
		return StatusInactive
	default:
		return StatusInProgress
	}
}

// Report records r on the commit, reusing a GitHub deployment already created
// for the same commit and environment
func (rp *Reporter) Report(ctx context.Context, r DeploymentReport) (*ReportResult, error) {
	if r.Owner == "" || r.Repo == "" || r.CommitSHA == "" {
		return nil, fmt.Errorf("owner, repo and commit are required to report a deployment")
	}
	environment := config.GitHubEnvironment(r.Environment)

	logger := rp.logger.With().
		Str("github_owner", r.Owner).
		Str("github_repo", r.Repo).
		Str("commit", r.CommitSHA).
		Str("environment", environment).
		Logger()

	client, err := rp.clients.CreateClientForOrg(ctx, r.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	result := &ReportResult{State: StatusForReadyState(r.ReadyState)}

	existing, _, err := client.Repositories.ListDeployments(ctx, r.Owner, r.Repo, &github.DeploymentsListOptions{
		SHA:         r.CommitSHA,
		Environment: environment,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}

	if len(existing) > 0 {
		result.DeploymentID = existing[0].GetID()
	} else {
		deployment, _, err := client.Repositories.CreateDeployment(ctx, r.Owner, r.Repo, &github.DeploymentRequest{
			Ref:                   github.String(r.CommitSHA),
			Task:                  github.String("deploy"),
			Environment:           github.String(environment),
			Description:           github.String(truncateDescription(fmt.Sprintf("Vercel deployment %s", r.VercelDeploymentID), 140)),
			TransientEnvironment:  github.Bool(environment != config.TargetProduction),
			ProductionEnvironment: github.Bool(environment == config.TargetProduction),
			// Vercel has already built the commit, checks are not awaited again
			RequiredContexts: &[]string{},
			AutoMerge:        github.Bool(false),
			Payload: map[string]string{
				"vercel_deployment_id": r.VercelDeploymentID,
			},
		})
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create GitHub deployment")
			return nil, fmt.Errorf("failed to create deployment: %w", err)
		}
		result.DeploymentID = deployment.GetID()
		result.Created = true
	}

	statusRequest := &github.DeploymentStatusRequest{
		State:        github.String(result.State),
		Description:  github.String(truncateDescription(fmt.Sprintf("Vercel build %s", r.ReadyState), 140)),
		Environment:  github.String(environment),
		AutoInactive: github.Bool(true),
	}
	if r.EnvironmentURL != "" {
		statusRequest.EnvironmentURL = github.String(ensureScheme(r.EnvironmentURL))
	}
	if r.LogURL != "" {
		statusRequest.LogURL = github.String(r.LogURL)
	}

	if _, _, err := client.Repositories.CreateDeploymentStatus(ctx, r.Owner, r.Repo, result.DeploymentID, statusRequest); err != nil {
		logger.Error().Err(err).
			Int64("deployment_id", result.DeploymentID).
			Str("state", result.State).
			Msg("Failed to update GitHub deployment status")
		return nil, fmt.Errorf("failed to update deployment status: %w", err)
	}

	logger.Info().
		Int64("deployment_id", result.DeploymentID).
		Bool("created", result.Created).
		Str("state", result.State).
		Msg("Reported Vercel deployment to GitHub")

	return result, nil
}

// ensureScheme prefixes the bare hostnames Vercel returns with https
func ensureScheme(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}

// truncateDescription ensures description doesn't exceed GitHub's limit
func truncateDescription(desc string, maxLen int) string {
	if len(desc) <= maxLen {
		return desc
	}
	return desc[:maxLen-3] + "..."
}
