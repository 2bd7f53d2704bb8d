package vercel

import (
	"errors"
	"fmt"
)

const (
	listDeploymentsDoc = "https://vercel.com/docs/rest-api#endpoints/deployments/list-deployments"
	listBuildsDoc      = "https://vercel.com/docs/rest-api#endpoints/deployments/list-deployment-builds"
)

var (
	// ErrDeploymentNotFound is returned when pagination is exhausted without a match
	ErrDeploymentNotFound = errors.New("deployment not found")

	// ErrNoBuilds is returned when a deployment has no build records
	ErrNoBuilds = errors.New("no builds found")
)

// ProtocolError reports a response whose shape differs from the documented API.
type ProtocolError struct {
	Field    string
	Value    string
	Expected string
	Doc      string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("expected %s to be %s, but got %s. The Vercel API may have changed, see %s",
		e.Field, e.Expected, e.Value, e.Doc)
}

// APIError represents a non-2xx response from the Vercel API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("vercel api %s %s failed with status %d", e.Method, e.Path, e.StatusCode)
	}
	if e.Code == "" {
		return fmt.Sprintf("vercel api %s %s failed (%d): %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("vercel api %s %s failed (%d %s): %s", e.Method, e.Path, e.StatusCode, e.Code, e.Message)
}
