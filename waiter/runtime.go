package waiter

import (
	"context"
	"time"

	"github.com/imranansari/vercel-deploy-wf/vercel"
)

// Runtime provides the suspension points of a wait: locating a deployment,
// fetching its latest build, and sleeping between attempts. Implementations
// decide how those suspend (a plain context here, durable activities and
// timers in the Temporal workflow).
type Runtime interface {
	FindDeployment(match vercel.Match) (*vercel.Deployment, error)
	LatestBuild(deploymentID string) (*vercel.Build, error)
	Sleep(d time.Duration) error
}

// VercelAPI is the part of vercel.Client the direct runtime needs
type VercelAPI interface {
	vercel.DeploymentLister
	LatestBuild(ctx context.Context, deploymentID, teamID string) (*vercel.Build, error)
}

// Direct runs a wait in-process against the Vercel API
type Direct struct {
	ctx     context.Context
	api     VercelAPI
	filters vercel.ListOptions
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewDirect creates a runtime bound to ctx. filters carries the team and
// project identifiers every listing is scoped to.
func NewDirect(ctx context.Context, api VercelAPI, filters vercel.ListOptions) *Direct {
	return &Direct{
		ctx:     ctx,
		api:     api,
		filters: filters,
		sleep:   sleepContext,
	}
}

func (d *Direct) FindDeployment(match vercel.Match) (*vercel.Deployment, error) {
	return vercel.FindDeployment(d.ctx, d.api, match.Predicate(), d.filters)
}

func (d *Direct) LatestBuild(deploymentID string) (*vercel.Build, error) {
	return d.api.LatestBuild(d.ctx, deploymentID, d.filters.TeamID)
}

func (d *Direct) Sleep(dur time.Duration) error {
	return d.sleep(d.ctx, dur)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
