package vercel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Deployment represents a deployment record returned by the listing endpoint
type Deployment struct {
	UID          string            `json:"uid"`
	Name         string            `json:"name"`
	URL          string            `json:"url,omitempty"`
	Created      int64             `json:"created"`
	State        DeploymentState   `json:"state,omitempty"`
	Type         string            `json:"type,omitempty"`
	Creator      Creator           `json:"creator"`
	Meta         map[string]string `json:"meta,omitempty"`
	Target       *string           `json:"target,omitempty"`
	CreatedAt    int64             `json:"createdAt,omitempty"`
	BuildingAt   int64             `json:"buildingAt,omitempty"`
	Ready        int64             `json:"ready,omitempty"`
	InspectorURL *string           `json:"inspectorUrl,omitempty"`
}

// Creator identifies the user who created a deployment
type Creator struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	Username    string `json:"username,omitempty"`
	GithubLogin string `json:"githubLogin,omitempty"`
	GitlabLogin string `json:"gitlabLogin,omitempty"`
}

// Git provider keys Vercel records the triggering commit under, in lookup order.
var commitMetaKeys = []string{"githubCommitSha", "gitlabCommitSha", "bitbucketCommitSha"}

// CommitSHA returns the commit that triggered the deployment, or "" when the
// deployment was not created from a git push.
func (d *Deployment) CommitSHA() string {
	for _, key := range commitMetaKeys {
		if sha := d.Meta[key]; sha != "" {
			return sha
		}
	}
	return ""
}

// Status validates the deployment's lifecycle state. An empty state is allowed.
func (d *Deployment) Status() (DeploymentState, error) {
	switch d.State {
	case "", DeploymentBuilding, DeploymentError, DeploymentInitializing,
		DeploymentQueued, DeploymentReady, DeploymentCanceled:
		return d.State, nil
	}
	return "", &ProtocolError{
		Field:    "deployment.state",
		Value:    string(d.State),
		Expected: "one of BUILDING, ERROR, INITIALIZING, QUEUED, READY, CANCELED",
		Doc:      listDeploymentsDoc,
	}
}

// Build represents a build record for a deployment
type Build struct {
	ID           string       `json:"id"`
	DeploymentID string       `json:"deploymentId"`
	Entrypoint   string       `json:"entrypoint"`
	ReadyState   ReadyState   `json:"readyState"`
	ReadyStateAt int64        `json:"readyStateAt,omitempty"`
	ScheduledAt  *int64       `json:"scheduledAt,omitempty"`
	CreatedAt    int64        `json:"createdAt,omitempty"`
	DeployedAt   int64        `json:"deployedAt,omitempty"`
	CreatedIn    string       `json:"createdIn,omitempty"`
	Use          string       `json:"use,omitempty"`
	Config       *BuildConfig `json:"config,omitempty"`
	Output       []Output     `json:"output"`
	Fingerprint  *string      `json:"fingerprint,omitempty"`
	CopiedFrom   string       `json:"copiedFrom,omitempty"`
}

// BuildConfig is the configuration a build ran with
type BuildConfig struct {
	DistDir           string `json:"distDir,omitempty"`
	ForceBuildIn      string `json:"forceBuildIn,omitempty"`
	ReuseWorkPathFrom string `json:"reuseWorkPathFrom,omitempty"`
	ZeroConfig        bool   `json:"zeroConfig,omitempty"`
}

// Output is a file or function produced by a build
type Output struct {
	Type   string `json:"type,omitempty"`
	Path   string `json:"path"`
	Digest string `json:"digest"`
	Mode   int    `json:"mode"`
	Size   int64  `json:"size,omitempty"`
}

// Pagination is the cursor block of the listing endpoint. Next and Prev are
// kept raw so an unexpected shape can be reported instead of silently decoded.
type Pagination struct {
	Count int             `json:"count"`
	Next  json.RawMessage `json:"next"`
	Prev  json.RawMessage `json:"prev"`
}

// NextCursor returns the timestamp to request the next (older) page with.
// A nil cursor means there are no further pages.
func (p Pagination) NextCursor() (*int64, error) {
	return parseCursor("pagination.next", p.Next)
}

const cursorExpected = "null or number"

func parseCursor(field string, raw json.RawMessage) (*int64, error) {
	// an absent field decodes to an empty RawMessage and reads as null
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ProtocolError{Field: field, Value: fmt.Sprintf("malformed JSON %q", string(raw)), Expected: cursorExpected, Doc: listDeploymentsDoc}
	}

	switch cursor := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if n, err := cursor.Int64(); err == nil {
			return &n, nil
		}
		f, err := cursor.Float64()
		if err == nil && f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			n := int64(f)
			return &n, nil
		}
		return nil, &ProtocolError{Field: field, Value: "non-integer number " + cursor.String(), Expected: cursorExpected, Doc: listDeploymentsDoc}
	}

	return nil, &ProtocolError{Field: field, Value: jsonKind(v), Expected: cursorExpected, Doc: listDeploymentsDoc}
}

func jsonKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case json.Number:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

// DeploymentsResponse is the body of GET /v6/deployments
type DeploymentsResponse struct {
	Deployments []Deployment `json:"deployments"`
	Pagination  Pagination   `json:"pagination"`
}

// BuildsResponse is the body of GET /v11/deployments/{id}/builds
type BuildsResponse struct {
	Builds []Build `json:"builds"`
}
