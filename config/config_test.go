package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actionEnv() map[string]string {
	return map[string]string{
		"INPUT_VERCEL_TEAM_ID":      "team_1",
		"INPUT_VERCEL_PROJECT_ID":   "prj_1",
		"INPUT_VERCEL_ACCESS_TOKEN": "tok",
		"INPUT_COMMIT_HASH":         "abc123",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFromEnvironment(actionEnv())
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateAction())

	assert.Equal(t, "team_1", cfg.Input.VercelTeamID)
	assert.Equal(t, "prj_1", cfg.Input.VercelProjectID)
	assert.Equal(t, "abc123", cfg.Input.CommitHash)
	assert.Equal(t, 2*time.Second, cfg.Input.PollInterval)
	assert.Equal(t, 5*time.Second, cfg.Input.RetryDelay)
	assert.Equal(t, time.Duration(0), cfg.Input.Timeout)
	assert.Equal(t, "https://api.vercel.com", cfg.Vercel.APIURL)
	assert.Equal(t, 2, cfg.Vercel.RetryMax)
	assert.Equal(t, "vercel-deployment-waiter", cfg.Temporal.TaskQueue)
	assert.False(t, cfg.GitHub.ReportingEnabled())
}

func TestLoadOverrides(t *testing.T) {
	environ := actionEnv()
	environ["INPUT_POLL_INTERVAL"] = "500ms"
	environ["INPUT_RETRY_DELAY"] = "1s"
	environ["INPUT_TIMEOUT"] = "10m"
	environ["INPUT_VERCEL_TARGET"] = "production"
	environ["VERCEL_API_URL"] = "http://localhost:8080"
	environ["TEMPORAL_TASK_QUEUE"] = "custom"

	cfg, err := LoadFromEnvironment(environ)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Input.PollInterval)
	assert.Equal(t, time.Second, cfg.Input.RetryDelay)
	assert.Equal(t, 10*time.Minute, cfg.Input.Timeout)
	assert.Equal(t, TargetProduction, cfg.Input.VercelTarget)
	assert.Equal(t, "http://localhost:8080", cfg.Vercel.APIURL)
	assert.Equal(t, "custom", cfg.Temporal.TaskQueue)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown target":     {"INPUT_VERCEL_TARGET": "qa"},
		"zero poll interval": {"INPUT_POLL_INTERVAL": "0s"},
		"negative timeout":   {"INPUT_TIMEOUT": "-1s"},
		"malformed duration": {"INPUT_RETRY_DELAY": "soon"},
		"missing token file": {"INPUT_VERCEL_ACCESS_TOKEN": "", "VERCEL_ACCESS_TOKEN_FILE": "/nonexistent/token"},
		"app without key":    {"GITHUB_APP_ID": "42", "GITHUB_REPOSITORY": "octo/web", "GITHUB_PRIVATE_KEY_PATH": "/nonexistent/key.pem"},
		"negative retry max": {"VERCEL_RETRY_MAX": "-1"},
	}

	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			environ := actionEnv()
			for k, v := range overrides {
				if v == "" {
					delete(environ, k)
					continue
				}
				environ[k] = v
			}
			_, err := LoadFromEnvironment(environ)
			assert.Error(t, err)
		})
	}
}

func TestValidateAction(t *testing.T) {
	cfg, err := LoadFromEnvironment(map[string]string{"INPUT_VERCEL_TEAM_ID": "team_1"})
	require.NoError(t, err)

	err = cfg.ValidateAction()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vercel_project_id")
	assert.Contains(t, err.Error(), "vercel_access_token")
	assert.Contains(t, err.Error(), "commit_hash")
	assert.NotContains(t, err.Error(), "vercel_team_id")

	assert.Error(t, cfg.ValidateWorker())
}

func TestSecretsFromFiles(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(tokenPath, []byte("file_tok\n"), 0o600))
	require.NoError(t, os.WriteFile(keyPath, []byte("pem"), 0o600))

	cfg, err := LoadFromEnvironment(map[string]string{
		"VERCEL_ACCESS_TOKEN_FILE": tokenPath,
		"GITHUB_APP_ID":            "42",
		"GITHUB_REPOSITORY":        "octo/web",
		"GITHUB_PRIVATE_KEY_PATH":  keyPath,
	})
	require.NoError(t, err)

	assert.Equal(t, "file_tok", cfg.Input.VercelAccessToken)
	assert.Equal(t, []byte("pem"), cfg.Secrets.GitHubPrivateKey)
	assert.True(t, cfg.GitHub.ReportingEnabled())
	assert.NoError(t, cfg.ValidateWorker())
}

func TestInlineTokenWinsOverFile(t *testing.T) {
	environ := actionEnv()
	environ["VERCEL_ACCESS_TOKEN_FILE"] = "/nonexistent/token"

	cfg, err := LoadFromEnvironment(environ)
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.Input.VercelAccessToken)
}

func TestOwnerRepo(t *testing.T) {
	owner, repo, err := GitHubConfig{Repository: "octo/web"}.OwnerRepo()
	require.NoError(t, err)
	assert.Equal(t, "octo", owner)
	assert.Equal(t, "web", repo)

	for _, bad := range []string{"", "octo", "octo/", "/web", "octo/web/extra"} {
		_, _, err := GitHubConfig{Repository: bad}.OwnerRepo()
		assert.Error(t, err, bad)
	}
}

func TestTargets(t *testing.T) {
	assert.True(t, IsValidTarget(""))
	for _, target := range ValidTargets() {
		assert.True(t, IsValidTarget(target))
	}
	assert.False(t, IsValidTarget("qa"))

	assert.Equal(t, TargetPreview, GitHubEnvironment(""))
	assert.Equal(t, TargetProduction, GitHubEnvironment(TargetProduction))
}
