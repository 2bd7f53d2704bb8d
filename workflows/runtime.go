package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/imranansari/vercel-deploy-wf/activities"
	"github.com/imranansari/vercel-deploy-wf/vercel"
	"github.com/imranansari/vercel-deploy-wf/waiter"
)

// activityRuntime runs the waiter's calls as activities and its sleeps as
// durable timers
type activityRuntime struct {
	ctx   workflow.Context
	input DeploymentWorkflowInput
}

func newActivityRuntime(ctx workflow.Context, input DeploymentWorkflowInput) *activityRuntime {
	return &activityRuntime{ctx: ctx, input: input}
}

func (r *activityRuntime) FindDeployment(match vercel.Match) (*vercel.Deployment, error) {
	findInput := activities.FindDeploymentInput{
		TeamID:    r.input.TeamID,
		ProjectID: r.input.ProjectID,
		Target:    r.input.Target,
		Match:     match,
	}

	var dep *vercel.Deployment
	if err := workflow.ExecuteActivity(r.ctx, FindVercelDeploymentActivity, findInput).Get(r.ctx, &dep); err != nil {
		return nil, fromActivityError(err)
	}
	return dep, nil
}

func (r *activityRuntime) LatestBuild(deploymentID string) (*vercel.Build, error) {
	buildInput := activities.LatestBuildInput{
		TeamID:       r.input.TeamID,
		DeploymentID: deploymentID,
	}

	var build *vercel.Build
	if err := workflow.ExecuteActivity(r.ctx, GetLatestVercelBuildActivity, buildInput).Get(r.ctx, &build); err != nil {
		return nil, fromActivityError(err)
	}
	return build, nil
}

func (r *activityRuntime) Sleep(d time.Duration) error {
	return workflow.Sleep(r.ctx, d)
}

// activityFailure keeps an activity's message while restoring the sentinel
// it was raised for
type activityFailure struct {
	msg   string
	cause error
}

func (e *activityFailure) Error() string { return e.msg }
func (e *activityFailure) Unwrap() error { return e.cause }

// fromActivityError turns the application errors raised by the Vercel
// activities back into the errors the waiter understands
func fromActivityError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}

	switch appErr.Type() {
	case activities.ErrTypeDeploymentNotFound:
		return &activityFailure{msg: appErr.Message(), cause: vercel.ErrDeploymentNotFound}
	case activities.ErrTypeNoBuilds:
		return &activityFailure{msg: appErr.Message(), cause: vercel.ErrNoBuilds}
	case activities.ErrTypeProtocol:
		var protoErr vercel.ProtocolError
		if appErr.HasDetails() && appErr.Details(&protoErr) == nil {
			return &protoErr
		}
	case activities.ErrTypeVercelAPI:
		var apiErr vercel.APIError
		if appErr.HasDetails() && appErr.Details(&apiErr) == nil {
			return &apiErr
		}
	}
	return err
}

// workflowNotifier sends wait progress to the replay-safe workflow logger
type workflowNotifier struct {
	logger log.Logger
}

func (n workflowNotifier) Debug(msg string)   { n.logger.Debug(msg) }
func (n workflowNotifier) Info(msg string)    { n.logger.Info(msg) }
func (n workflowNotifier) Warning(msg string) { n.logger.Warn(msg) }

var (
	_ waiter.Runtime  = (*activityRuntime)(nil)
	_ waiter.Notifier = workflowNotifier{}
)
