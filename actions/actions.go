package actions

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-githubactions"

	"github.com/imranansari/vercel-deploy-wf/vercel"
	"github.com/imranansari/vercel-deploy-wf/waiter"
)

// Output names exposed by the action
const (
	OutputDeploymentURL = "deployment_url"
	OutputDeploymentID  = "deployment_id"
	OutputBuildState    = "build_state"
)

// Notifier reports wait progress to the job log. Warnings are also raised as
// workflow-command annotations so they show up on the run summary.
type Notifier struct {
	action *githubactions.Action
	logger zerolog.Logger
}

// NewNotifier creates a notifier writing to a and logger
func NewNotifier(a *githubactions.Action, logger zerolog.Logger) *Notifier {
	return &Notifier{action: a, logger: logger}
}

func (n *Notifier) Debug(msg string) {
	n.logger.Debug().Msg(msg)
}

func (n *Notifier) Info(msg string) {
	n.logger.Info().Msg(msg)
}

func (n *Notifier) Warning(msg string) {
	n.logger.Warn().Msg(msg)
	n.action.Warningf("%s", msg)
}

var _ waiter.Notifier = (*Notifier)(nil)

// Publish sets the step outputs for a finished wait
func Publish(a *githubactions.Action, res *waiter.Result) {
	a.SetOutput(OutputDeploymentURL, res.URL)
	a.SetOutput(OutputDeploymentID, res.DeploymentID)
	a.SetOutput(OutputBuildState, res.ReadyState.String())

	a.Noticef("Deployment %s finished as %s: %s", res.DeploymentID, res.ReadyState, res.URL)
}

// Fail logs err with whatever API diagnostics it carries and marks the step
// as failed. The caller is expected to exit non-zero afterwards.
func Fail(a *githubactions.Action, logger zerolog.Logger, err error) {
	event := logger.Error().Err(err)

	var apiErr *vercel.APIError
	if errors.As(err, &apiErr) {
		event = event.
			Int("status_code", apiErr.StatusCode).
			Str("error_code", apiErr.Code).
			Str("method", apiErr.Method).
			Str("path", apiErr.Path)
	}

	var protoErr *vercel.ProtocolError
	if errors.As(err, &protoErr) {
		event = event.
			Str("field", protoErr.Field).
			Str("expected", protoErr.Expected).
			Str("doc", protoErr.Doc)
	}

	switch {
	case errors.Is(err, vercel.ErrDeploymentNotFound):
		event = event.Str("reason", "deployment_not_found")
	case errors.Is(err, vercel.ErrNoBuilds):
		event = event.Str("reason", "no_builds")
	}

	event.Msg("Waiting for Vercel deployment failed")
	a.Errorf("%s", err)
}
