package activities

import "github.com/imranansari/vercel-deploy-wf/vercel"

// Application error types returned by the Vercel activities. All are
// non-retryable except VercelAPIError for 429 and 5xx responses.
const (
	ErrTypeDeploymentNotFound = "DeploymentNotFound"
	ErrTypeNoBuilds           = "NoBuilds"
	ErrTypeProtocol           = "ProtocolError"
	ErrTypeVercelAPI          = "VercelAPIError"
)

// FindDeploymentInput represents input for locating a deployment by commit
type FindDeploymentInput struct {
	TeamID    string       `json:"team_id"`
	ProjectID string       `json:"project_id"`
	Target    string       `json:"target,omitempty"`
	Match     vercel.Match `json:"match"`
}

// LatestBuildInput represents input for fetching the newest build of a deployment
type LatestBuildInput struct {
	TeamID       string `json:"team_id"`
	DeploymentID string `json:"deployment_id"`
}
