package waiter

import (
	"fmt"
	"strings"
	"time"

	"github.com/imranansari/vercel-deploy-wf/vercel"
)

// AwaitBuild fetches the deployment's latest build until its state is
// terminal. The first fetch is immediate; every later fetch is preceded by
// exactly one sleep of interval. It returns the terminal build and the number
// of fetches made.
func AwaitBuild(rt Runtime, n Notifier, dep *vercel.Deployment, interval time.Duration) (*vercel.Build, int, error) {
	var (
		build *vercel.Build
		polls int
	)

	for {
		if build != nil {
			n.Debug(fmt.Sprintf("Build is %s. Waiting %s before trying again",
				strings.ToLower(string(build.ReadyState)), interval))
			if err := rt.Sleep(interval); err != nil {
				return nil, polls, fmt.Errorf("interrupted while waiting for build of %s: %w", dep.UID, err)
			}
		}

		next, err := rt.LatestBuild(dep.UID)
		polls++
		if err != nil {
			return nil, polls, fmt.Errorf("failed to fetch build for deployment %s: %w", dep.UID, err)
		}
		state, err := vercel.ParseReadyState(string(next.ReadyState))
		if err != nil {
			return nil, polls, err
		}
		next.ReadyState = state
		build = next

		if build.ReadyState.IsTerminal() {
			break
		}
	}

	if !build.ReadyState.Succeeded() {
		n.Warning(fmt.Sprintf("Build has been marked as %s", build.ReadyState))
	}
	return build, polls, nil
}
