package waiter

import (
	"errors"
	"fmt"
	"time"

	"github.com/imranansari/vercel-deploy-wf/vercel"
)

const (
	// DefaultPollInterval separates successive build fetches
	DefaultPollInterval = 2 * time.Second
	// DefaultRetryDelay precedes the single retry of a deployment search
	DefaultRetryDelay = 5 * time.Second
)

// Notifier receives progress messages meant for the person reading the
// pipeline log
type Notifier interface {
	Debug(msg string)
	Info(msg string)
	Warning(msg string)
}

// Options tunes the fixed delays of a wait
type Options struct {
	PollInterval time.Duration `json:"poll_interval"`
	RetryDelay   time.Duration `json:"retry_delay"`
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	return o
}

// Result is the outcome of a completed wait
type Result struct {
	DeploymentID string            `json:"deployment_id"`
	URL          string            `json:"url"`
	ReadyState   vercel.ReadyState `json:"ready_state"`
	Succeeded    bool              `json:"succeeded"`
	// Attempts counts deployment searches, including the retry and the URL re-fetch
	Attempts int `json:"attempts"`
	Polls    int `json:"polls"`
}

// Wait locates the deployment for commit, waits for its build to finish and
// returns the deployment URL to publish. A search that finds nothing is
// retried exactly once after RetryDelay; every other failure is returned to
// the caller unchanged.
func Wait(rt Runtime, n Notifier, commit string, opts Options) (*Result, error) {
	if commit == "" {
		return nil, errors.New("commit hash is required")
	}
	opts = opts.withDefaults()
	short := shortSHA(commit)
	res := &Result{}

	n.Info(fmt.Sprintf("Seeking deployment for commit %s", short))
	res.Attempts++
	dep, err := rt.FindDeployment(vercel.Match{Commit: commit})
	if errors.Is(err, vercel.ErrDeploymentNotFound) {
		n.Warning(fmt.Sprintf("No deployment was found... Trying one more time in %s.", opts.RetryDelay))
		if err := rt.Sleep(opts.RetryDelay); err != nil {
			return nil, fmt.Errorf("interrupted before retrying deployment search: %w", err)
		}
		res.Attempts++
		dep, err = rt.FindDeployment(vercel.Match{Commit: commit})
		if errors.Is(err, vercel.ErrDeploymentNotFound) {
			return nil, fmt.Errorf("no deployment was found in either attempt for commit %s: %w", short, err)
		}
	}
	if err != nil {
		return nil, err
	}

	if _, err := dep.Status(); err != nil {
		return nil, err
	}
	n.Info(fmt.Sprintf("Found deployment with id %q for commit %s", dep.UID, short))
	res.DeploymentID = dep.UID

	build, polls, err := AwaitBuild(rt, n, dep, opts.PollInterval)
	res.Polls = polls
	if err != nil {
		return nil, err
	}
	res.ReadyState = build.ReadyState
	res.Succeeded = build.ReadyState.Succeeded()

	if dep.URL == "" {
		// the listing can return the deployment before its URL is assigned
		n.Debug(fmt.Sprintf("Deployment %s has no URL yet, fetching it again", dep.UID))
		res.Attempts++
		// match the full hash of the record found, the input may be abbreviated
		full := dep.CommitSHA()
		if full == "" {
			full = commit
		}
		refetched, err := rt.FindDeployment(vercel.Match{Commit: full, Exact: true})
		if err != nil {
			return nil, fmt.Errorf("failed to re-fetch deployment for commit %s: %w", short, err)
		}
		dep = refetched
	}
	if dep.URL == "" {
		return nil, fmt.Errorf("deployment %s for commit %s has no url", dep.UID, short)
	}

	res.URL = dep.URL
	return res, nil
}

func shortSHA(sha string) string {
	if len(sha) > 6 {
		return sha[:6]
	}
	return sha
}
