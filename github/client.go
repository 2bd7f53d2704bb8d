package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"

	"github.com/imranansari/vercel-deploy-wf/config"
)

// ClientFactory creates GitHub clients authenticated as a GitHub App
// installation, on GitHub.com or on GitHub Enterprise when an Enterprise URL
// is configured.
type ClientFactory struct {
	config     config.GitHubConfig
	privateKey []byte
	logger     zerolog.Logger
	transport  http.RoundTripper

	mu sync.Mutex
	// Installation IDs by organization
	installationCache map[string]int64
}

// NewClientFactory creates a new GitHub client factory
func NewClientFactory(cfg config.GitHubConfig, privateKey []byte, logger zerolog.Logger) *ClientFactory {
	return &ClientFactory{
		config:            cfg,
		privateKey:        privateKey,
		logger:            logger,
		transport:         http.DefaultTransport,
		installationCache: make(map[string]int64),
	}
}

// apiBase returns the REST and upload roots, or empty strings for GitHub.com
func (f *ClientFactory) apiBase() (string, string) {
	if f.config.EnterpriseURL == "" {
		return "", ""
	}
	base := strings.TrimSuffix(f.config.EnterpriseURL, "/")
	return base + "/api/v3", base + "/api/uploads"
}

func (f *ClientFactory) host() string {
	if f.config.EnterpriseURL != "" {
		return f.config.EnterpriseURL
	}
	return "github.com"
}

// newClient wraps transport, pointing it at Enterprise when configured
func (f *ClientFactory) newClient(rt http.RoundTripper) (*github.Client, error) {
	client := github.NewClient(&http.Client{Transport: rt})
	apiURL, uploadURL := f.apiBase()
	if apiURL == "" {
		return client, nil
	}

	var err error
	if client.BaseURL, err = client.BaseURL.Parse(apiURL + "/"); err != nil {
		return nil, fmt.Errorf("invalid GitHub Enterprise URL %q: %w", f.config.EnterpriseURL, err)
	}
	if client.UploadURL, err = client.UploadURL.Parse(uploadURL + "/"); err != nil {
		return nil, fmt.Errorf("invalid GitHub Enterprise URL %q: %w", f.config.EnterpriseURL, err)
	}
	return client, nil
}

// CreateClientForOrg returns a client for the App installation on org
func (f *ClientFactory) CreateClientForOrg(ctx context.Context, org string) (*github.Client, error) {
	installationID, err := f.installationFor(ctx, org)
	if err != nil {
		return nil, err
	}

	itr, err := ghinstallation.New(f.transport, f.config.AppID, installationID, f.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation transport: %w", err)
	}
	if apiURL, _ := f.apiBase(); apiURL != "" {
		itr.BaseURL = apiURL
	}

	client, err := f.newClient(itr)
	if err != nil {
		return nil, err
	}

	f.logger.Debug().
		Int64("app_id", f.config.AppID).
		Int64("installation_id", installationID).
		Str("github_host", f.host()).
		Msg("GitHub installation client created")

	return client, nil
}

func (f *ClientFactory) installationFor(ctx context.Context, org string) (int64, error) {
	f.mu.Lock()
	installationID, ok := f.installationCache[org]
	f.mu.Unlock()
	if ok {
		return installationID, nil
	}

	atr, err := ghinstallation.NewAppsTransport(f.transport, f.config.AppID, f.privateKey)
	if err != nil {
		return 0, fmt.Errorf("failed to create app transport: %w", err)
	}
	if apiURL, _ := f.apiBase(); apiURL != "" {
		atr.BaseURL = apiURL
	}

	appClient, err := f.newClient(atr)
	if err != nil {
		return 0, err
	}

	opts := &github.ListOptions{PerPage: 100}
	for {
		installations, resp, err := appClient.Apps.ListInstallations(ctx, opts)
		if err != nil {
			return 0, fmt.Errorf("failed to list app installations on %s: %w", f.host(), err)
		}

		for _, installation := range installations {
			if installation.GetAccount().GetLogin() == org {
				installationID = installation.GetID()
				break
			}
		}
		if installationID != 0 || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if installationID == 0 {
		return 0, fmt.Errorf("no installation found for organization '%s' on %s", org, f.host())
	}

	f.mu.Lock()
	f.installationCache[org] = installationID
	f.mu.Unlock()

	f.logger.Info().
		Int64("app_id", f.config.AppID).
		Int64("installation_id", installationID).
		Str("organization", org).
		Str("github_host", f.host()).
		Msg("Found GitHub App installation for organization")

	return installationID, nil
}
