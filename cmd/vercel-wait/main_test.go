package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imranansari/vercel-deploy-wf/config"
)

type fakeVercel struct {
	deployments string
	builds      []string
	buildCalls  atomic.Int32
}

func (f *fakeVercel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/v6/deployments":
		fmt.Fprint(w, f.deployments)
	case "/v11/deployments/dpl_1/builds":
		n := int(f.buildCalls.Add(1)) - 1
		if n >= len(f.builds) {
			n = len(f.builds) - 1
		}
		fmt.Fprintf(w, `{"builds":[{"id":"bld_1","deploymentId":"dpl_1","readyState":%q}]}`, f.builds[n])
	default:
		http.NotFound(w, r)
	}
}

func testConfig(t *testing.T, apiURL string, overrides map[string]string) *config.Config {
	t.Helper()
	environ := map[string]string{
		"INPUT_VERCEL_TEAM_ID":      "team_1",
		"INPUT_VERCEL_PROJECT_ID":   "prj_1",
		"INPUT_VERCEL_ACCESS_TOKEN": "tok",
		"INPUT_COMMIT_HASH":         "abc123",
		"INPUT_POLL_INTERVAL":       "1ms",
		"INPUT_RETRY_DELAY":         "1ms",
		"VERCEL_API_URL":            apiURL,
		"VERCEL_RETRY_MAX":          "0",
	}
	for k, v := range overrides {
		environ[k] = v
	}
	cfg, err := config.LoadFromEnvironment(environ)
	require.NoError(t, err)
	return cfg
}

func testAction(t *testing.T) (*githubactions.Action, *bytes.Buffer, string) {
	t.Helper()
	outputPath := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(outputPath, nil, 0o600))

	var buf bytes.Buffer
	environ := map[string]string{"GITHUB_OUTPUT": outputPath}
	a := githubactions.New(
		githubactions.WithWriter(&buf),
		githubactions.WithGetenv(func(key string) string { return environ[key] }),
	)
	return a, &buf, outputPath
}

func TestRunAction(t *testing.T) {
	api := &fakeVercel{
		deployments: `{"deployments":[{"uid":"dpl_1","url":"web-abc.vercel.app","state":"BUILDING","meta":{"githubCommitSha":"abc1234567"}}],"pagination":{"count":1,"next":null,"prev":null}}`,
		builds:      []string{"BUILDING", "READY"},
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	action, out, outputPath := testAction(t)
	require.NoError(t, runAction(context.Background(), testConfig(t, srv.URL, nil), action))

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "deployment_url")
	assert.Contains(t, string(written), "web-abc.vercel.app")
	assert.Contains(t, out.String(), "::notice::")
	assert.Equal(t, int32(2), api.buildCalls.Load())
}

func TestRunActionNotFound(t *testing.T) {
	srv := httptest.NewServer(&fakeVercel{
		deployments: `{"deployments":[],"pagination":{"count":0,"next":null,"prev":null}}`,
	})
	t.Cleanup(srv.Close)

	action, out, outputPath := testAction(t)
	err := runAction(context.Background(), testConfig(t, srv.URL, nil), action)
	require.Error(t, err)

	assert.Contains(t, out.String(), "::warning::No deployment was found")
	assert.Contains(t, out.String(), "::error::no deployment was found in either attempt for commit abc123")

	written, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestRunActionMissingInputs(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1", map[string]string{"INPUT_COMMIT_HASH": ""})

	action, out, _ := testAction(t)
	err := runAction(context.Background(), cfg, action)
	require.Error(t, err)
	assert.Contains(t, out.String(), "::error::missing required input(s): commit_hash")
}

func TestRunActionTimeout(t *testing.T) {
	srv := httptest.NewServer(&fakeVercel{
		deployments: `{"deployments":[{"uid":"dpl_1","url":"web-abc.vercel.app","meta":{"githubCommitSha":"abc123"}}],"pagination":{"count":1,"next":null,"prev":null}}`,
		builds:      []string{"BUILDING"},
	})
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv.URL, map[string]string{"INPUT_TIMEOUT": "50ms", "INPUT_POLL_INTERVAL": "10ms"})
	action, _, _ := testAction(t)

	start := time.Now()
	err := runAction(context.Background(), cfg, action)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestLoadConfigFlags(t *testing.T) {
	t.Setenv("INPUT_VERCEL_TEAM_ID", "team_env")
	t.Setenv("INPUT_COMMIT_HASH", "abc123")
	t.Setenv("INPUT_POLL_INTERVAL", "4s")

	f := &flags{}
	cmd := &cobra.Command{Use: "test"}
	bindFlags(cmd, f)
	require.NoError(t, cmd.ParseFlags([]string{"--commit", "def456", "--target", "production", "--retry-delay", "9s"}))

	cfg, err := loadConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, "team_env", cfg.Input.VercelTeamID)
	assert.Equal(t, "def456", cfg.Input.CommitHash)
	assert.Equal(t, config.TargetProduction, cfg.Input.VercelTarget)
	assert.Equal(t, 4*time.Second, cfg.Input.PollInterval)
	assert.Equal(t, 9*time.Second, cfg.Input.RetryDelay)
}

func TestLoadConfigRejectsBadFlag(t *testing.T) {
	f := &flags{}
	cmd := &cobra.Command{Use: "test"}
	bindFlags(cmd, f)
	require.NoError(t, cmd.ParseFlags([]string{"--target", "qa"}))

	_, err := loadConfig(cmd, f)
	assert.Error(t, err)
}

func TestWorkflowInput(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1", map[string]string{"INPUT_VERCEL_TARGET": "preview"})
	action, _, _ := testAction(t)

	input := workflowInput(cfg, action)
	assert.Equal(t, "team_1", input.TeamID)
	assert.Equal(t, "prj_1", input.ProjectID)
	assert.Equal(t, "abc123", input.CommitSHA)
	assert.Equal(t, "preview", input.Target)
	assert.Equal(t, time.Millisecond, input.PollInterval)
	assert.False(t, input.ReportsToGitHub())
	assert.Empty(t, input.LogURL)
}

func TestRunURL(t *testing.T) {
	environ := map[string]string{
		"GITHUB_SERVER_URL": "https://github.com",
		"GITHUB_REPOSITORY": "octo/web",
		"GITHUB_RUN_ID":     "12345",
	}
	action := githubactions.New(githubactions.WithGetenv(func(key string) string { return environ[key] }))
	assert.Equal(t, "https://github.com/octo/web/actions/runs/12345", runURL(action))
}
