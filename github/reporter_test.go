package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imranansari/vercel-deploy-wf/vercel"
)

type staticProvider struct {
	client *github.Client
	err    error
	orgs   []string
}

func (p *staticProvider) CreateClientForOrg(_ context.Context, org string) (*github.Client, error) {
	p.orgs = append(p.orgs, org)
	return p.client, p.err
}

type fakeGitHub struct {
	existing []map[string]any
	created  map[string]any
	status   map[string]any
	statusOn string
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/web/deployments", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "abc123", r.URL.Query().Get("sha"))
			assert.Equal(t, "preview", r.URL.Query().Get("environment"))
			_ = json.NewEncoder(w).Encode(f.existing)
		case http.MethodPost:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.created))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 77})
		}
	})
	mux.HandleFunc("/repos/octo/web/deployments/", func(w http.ResponseWriter, r *http.Request) {
		f.statusOn = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.status))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 1, "state": f.status["state"]})
	})
	return mux
}

func newReporter(t *testing.T, gh *fakeGitHub) (*Reporter, *staticProvider) {
	t.Helper()
	server := httptest.NewServer(gh.handler(t))
	t.Cleanup(server.Close)

	client := github.NewClient(nil)
	client.BaseURL, _ = url.Parse(server.URL + "/")
	provider := &staticProvider{client: client}
	return NewReporter(provider, zerolog.Nop()), provider
}

func report(state vercel.ReadyState) DeploymentReport {
	return DeploymentReport{
		Owner:              "octo",
		Repo:               "web",
		CommitSHA:          "abc123",
		EnvironmentURL:     "web-abc.vercel.app",
		VercelDeploymentID: "dpl_1",
		ReadyState:         state,
	}
}

func TestReportCreatesDeployment(t *testing.T) {
	gh := &fakeGitHub{}
	reporter, provider := newReporter(t, gh)

	res, err := reporter.Report(context.Background(), report(vercel.ReadyStateReady))
	require.NoError(t, err)

	assert.Equal(t, []string{"octo"}, provider.orgs)
	assert.Equal(t, &ReportResult{DeploymentID: 77, State: StatusSuccess, Created: true}, res)

	assert.Equal(t, "abc123", gh.created["ref"])
	assert.Equal(t, "preview", gh.created["environment"])
	assert.Equal(t, true, gh.created["transient_environment"])

	assert.Equal(t, "/repos/octo/web/deployments/77/statuses", gh.statusOn)
	assert.Equal(t, "success", gh.status["state"])
	assert.Equal(t, "https://web-abc.vercel.app", gh.status["environment_url"])
}

func TestReportReusesDeployment(t *testing.T) {
	gh := &fakeGitHub{existing: []map[string]any{{"id": 42}}}
	reporter, _ := newReporter(t, gh)

	res, err := reporter.Report(context.Background(), report(vercel.ReadyStateError))
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.DeploymentID)
	assert.False(t, res.Created)
	assert.Nil(t, gh.created)
	assert.Equal(t, "/repos/octo/web/deployments/42/statuses", gh.statusOn)
	assert.Equal(t, "failure", gh.status["state"])
}

func TestReportErrors(t *testing.T) {
	_, err := NewReporter(&staticProvider{}, zerolog.Nop()).Report(context.Background(), DeploymentReport{Owner: "octo"})
	assert.Error(t, err)

	_, err = NewReporter(&staticProvider{err: errors.New("no installation")}, zerolog.Nop()).
		Report(context.Background(), report(vercel.ReadyStateReady))
	assert.ErrorContains(t, err, "no installation")
}

func TestStatusForReadyState(t *testing.T) {
	cases := map[vercel.ReadyState]string{
		vercel.ReadyStateReady:    StatusSuccess,
		vercel.ReadyStateQueued:   StatusSuccess,
		vercel.ReadyStateError:    StatusFailure,
		vercel.ReadyStateCanceled: StatusError,
		vercel.ReadyStateArchived: StatusInactive,
		vercel.ReadyStateBuilding: StatusInProgress,
	}
	for state, want := range cases {
		assert.Equal(t, want, StatusForReadyState(state), string(state))
	}
}

func TestEnsureScheme(t *testing.T) {
	assert.Equal(t, "https://web.vercel.app", ensureScheme("web.vercel.app"))
	assert.Equal(t, "http://localhost:3000", ensureScheme("http://localhost:3000"))
	assert.Equal(t, "https://web.vercel.app", ensureScheme("https://web.vercel.app"))
}

func TestTruncateDescription(t *testing.T) {
	assert.Equal(t, "short", truncateDescription("short", 140))
	assert.Equal(t, "abcdefg...", truncateDescription("abcdefghijklmnop", 10))
}
