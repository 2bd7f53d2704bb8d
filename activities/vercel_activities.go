package activities

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/imranansari/vercel-deploy-wf/logging"
	"github.com/imranansari/vercel-deploy-wf/vercel"
	"github.com/imranansari/vercel-deploy-wf/waiter"
)

// VercelActivities contains Vercel API activities
type VercelActivities struct {
	api waiter.VercelAPI
}

// NewVercelActivities creates a new instance of Vercel activities
func NewVercelActivities(api waiter.VercelAPI) *VercelActivities {
	return &VercelActivities{api: api}
}

// FindVercelDeployment pages through the project's deployments and returns the
// newest one matching the input commit
func (a *VercelActivities) FindVercelDeployment(ctx context.Context, input FindDeploymentInput) (*vercel.Deployment, error) {
	activityInfo := activity.GetInfo(ctx)
	logger := logging.ActivityLogger("FindVercelDeployment", activityInfo.WorkflowExecution.ID, activityInfo.WorkflowExecution.RunID)

	logger.Info().
		Str("team_id", input.TeamID).
		Str("project_id", input.ProjectID).
		Str("match", input.Match.String()).
		Msg("Seeking Vercel deployment")

	lister := heartbeatLister{ctx: ctx, lister: a.api}
	dep, err := vercel.FindDeployment(ctx, lister, input.Match.Predicate(), vercel.ListOptions{
		TeamID:    input.TeamID,
		ProjectID: input.ProjectID,
		Target:    input.Target,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Vercel deployment search failed")
		return nil, applicationError(err)
	}

	logger.Info().
		Str("deployment_id", dep.UID).
		Str("url", dep.URL).
		Msg("Found Vercel deployment")

	return dep, nil
}

// GetLatestVercelBuild returns the newest build of a deployment
func (a *VercelActivities) GetLatestVercelBuild(ctx context.Context, input LatestBuildInput) (*vercel.Build, error) {
	activityInfo := activity.GetInfo(ctx)
	logger := logging.ActivityLogger("GetLatestVercelBuild", activityInfo.WorkflowExecution.ID, activityInfo.WorkflowExecution.RunID)

	build, err := withHeartbeat(ctx, input.DeploymentID, func() (*vercel.Build, error) {
		return a.api.LatestBuild(ctx, input.DeploymentID, input.TeamID)
	})
	if err != nil {
		logger.Warn().Err(err).Str("deployment_id", input.DeploymentID).Msg("Failed to fetch Vercel build")
		return nil, applicationError(err)
	}

	logger.Debug().
		Str("deployment_id", input.DeploymentID).
		Str("ready_state", build.ReadyState.String()).
		Msg("Fetched Vercel build")

	return build, nil
}

// heartbeatInterval stays well below the workflow's heartbeat timeout so a
// single slow request cannot exhaust it
var heartbeatInterval = 10 * time.Second

var recordHeartbeat = activity.RecordHeartbeat

// withHeartbeat records a heartbeat now and every heartbeatInterval until fn
// returns
func withHeartbeat[T any](ctx context.Context, details any, fn func() (T, error)) (T, error) {
	record, interval := recordHeartbeat, heartbeatInterval
	record(ctx, details)

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				record(ctx, details)
			}
		}
	}()

	return fn()
}

// heartbeatLister keeps the activity alive for every page of a search,
// including while a request is in flight
type heartbeatLister struct {
	ctx    context.Context
	lister vercel.DeploymentLister
}

func (h heartbeatLister) ListDeployments(ctx context.Context, opts vercel.ListOptions) (*vercel.DeploymentsResponse, error) {
	return withHeartbeat(h.ctx, opts.Until, func() (*vercel.DeploymentsResponse, error) {
		return h.lister.ListDeployments(ctx, opts)
	})
}

// applicationError marks the failures a retry cannot fix as non-retryable and
// carries their details across the activity boundary
func applicationError(err error) error {
	var protoErr *vercel.ProtocolError
	var apiErr *vercel.APIError

	switch {
	case errors.Is(err, vercel.ErrDeploymentNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeDeploymentNotFound, err)
	case errors.Is(err, vercel.ErrNoBuilds):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNoBuilds, err)
	case errors.As(err, &protoErr):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeProtocol, err, *protoErr)
	case errors.As(err, &apiErr):
		if retryableStatus(apiErr.StatusCode) {
			return temporal.NewApplicationError(err.Error(), ErrTypeVercelAPI, *apiErr)
		}
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeVercelAPI, err, *apiErr)
	}
	return fmt.Errorf("vercel request failed: %w", err)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
