package vercel

import (
	"context"
	"fmt"
	"strings"
)

// DeploymentLister fetches one page of deployments
type DeploymentLister interface {
	ListDeployments(ctx context.Context, opts ListOptions) (*DeploymentsResponse, error)
}

// Predicate selects a deployment record
type Predicate func(d *Deployment) bool

// CommitContains matches deployments whose commit contains sha. This accepts
// abbreviated hashes as well as full ones.
func CommitContains(sha string) Predicate {
	return func(d *Deployment) bool {
		commit := d.CommitSHA()
		return sha != "" && commit != "" && strings.Contains(commit, sha)
	}
}

// CommitEquals matches deployments triggered by exactly sha
func CommitEquals(sha string) Predicate {
	return func(d *Deployment) bool {
		return sha != "" && d.CommitSHA() == sha
	}
}

// Match is a serializable commit predicate, used where a closure cannot be
// passed (for example across a workflow activity boundary).
type Match struct {
	Commit string `json:"commit"`
	Exact  bool   `json:"exact"`
}

// Predicate returns the predicate described by m
func (m Match) Predicate() Predicate {
	if m.Exact {
		return CommitEquals(m.Commit)
	}
	return CommitContains(m.Commit)
}

func (m Match) String() string {
	if m.Exact {
		return "commit == " + m.Commit
	}
	return "commit contains " + m.Commit
}

// FindDeployment pages through deployments newest first and returns the first
// record satisfying match. It stops at the first match and fails with
// ErrDeploymentNotFound once the pagination cursor runs out.
func FindDeployment(ctx context.Context, lister DeploymentLister, match Predicate, opts ListOptions) (*Deployment, error) {
	page := 0
	var prev *int64
	if opts.Until > 0 {
		prev = &opts.Until
	}
	for {
		page++
		res, err := lister.ListDeployments(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list deployments (page %d): %w", page, err)
		}

		for i := range res.Deployments {
			if match(&res.Deployments[i]) {
				dep := res.Deployments[i]
				return &dep, nil
			}
		}

		next, err := res.Pagination.NextCursor()
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("%w after %d page(s)", ErrDeploymentNotFound, page)
		}

		// a cursor that does not move back in time would page forever, and a
		// zero cursor drops until and restarts from the newest page
		if *next <= 0 {
			return nil, &ProtocolError{
				Field:    "pagination.next",
				Value:    fmt.Sprintf("%d", *next),
				Expected: "a positive timestamp",
				Doc:      listDeploymentsDoc,
			}
		}
		if prev != nil && *next >= *prev {
			return nil, &ProtocolError{
				Field:    "pagination.next",
				Value:    fmt.Sprintf("%d after until=%d", *next, *prev),
				Expected: "older than the previous cursor",
				Doc:      listDeploymentsDoc,
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.Until = *next
		prev = next
	}
}
