package vercel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/imranansari/vercel-deploy-wf/config"
)

// DefaultBaseURL is the public Vercel REST API
const DefaultBaseURL = "https://api.vercel.com"

// Client is a read-only Vercel REST API connection
type Client struct {
	baseURL *url.URL
	conn    *http.Client
	logger  zerolog.Logger
}

type clientOptions struct {
	baseURL   string
	retryMax  int
	retryWait time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
}

// Option customises client construction
type Option func(*clientOptions)

// WithBaseURL points the client at another API host
func WithBaseURL(u string) Option {
	return func(o *clientOptions) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithRetryMax sets how many times a failed transport call or 5xx/429
// response is retried
func WithRetryMax(n int) Option {
	return func(o *clientOptions) {
		if n >= 0 {
			o.retryMax = n
		}
	}
}

// WithRetryWait sets the fixed wait between transport retries
func WithRetryWait(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.retryWait = d
		}
	}
}

// WithTimeout bounds a single request including its retries
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger used for request and retry diagnostics
func WithLogger(l zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// NewClient creates a client authenticating with a bearer access token
func NewClient(token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("vercel access token is required")
	}

	o := clientOptions{
		baseURL:   DefaultBaseURL,
		retryMax:  2,
		retryWait: time.Second,
		timeout:   30 * time.Second,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := url.Parse(strings.TrimSuffix(o.baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid vercel api url %q: %w", o.baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid vercel api url %q: scheme and host are required", o.baseURL)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = o.retryMax
	rc.RetryWaitMin = o.retryWait
	rc.RetryWaitMax = o.retryWait
	rc.Backoff = fixedBackoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = retryLogger{logger: o.logger}

	conn := &http.Client{
		Timeout: o.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(token), TokenType: "Bearer"}),
			Base:   rc.StandardClient().Transport,
		},
	}

	return &Client{
		baseURL: base,
		conn:    conn,
		logger:  o.logger,
	}, nil
}

// NewClientFromConfig creates a client from the VERCEL_ settings
func NewClientFromConfig(token string, cfg config.VercelConfig, logger zerolog.Logger) (*Client, error) {
	return NewClient(token,
		WithBaseURL(cfg.APIURL),
		WithRetryMax(cfg.RetryMax),
		WithRetryWait(cfg.RetryWait),
		WithTimeout(cfg.HTTPTimeout),
		WithLogger(logger),
	)
}

// fixedBackoff waits the minimum every time; retries are not tuned further.
func fixedBackoff(min, _ time.Duration, _ int, _ *http.Response) time.Duration {
	return min
}

// ListOptions filters the deployments listing
type ListOptions struct {
	TeamID    string
	ProjectID string
	Target    string
	Limit     int
	// Until requests deployments created before this timestamp (ms). Zero means newest.
	Until int64
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.TeamID != "" {
		q.Set("teamId", o.TeamID)
	}
	if o.ProjectID != "" {
		q.Set("projectId", o.ProjectID)
	}
	if o.Target != "" {
		q.Set("target", o.Target)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Until > 0 {
		q.Set("until", strconv.FormatInt(o.Until, 10))
	}
	return q
}

// ListDeployments fetches one page of deployments, newest first
func (c *Client) ListDeployments(ctx context.Context, opts ListOptions) (*DeploymentsResponse, error) {
	var res DeploymentsResponse
	if err := c.get(ctx, "/v6/deployments", opts.query(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListBuilds fetches the builds of a deployment in creation order
func (c *Client) ListBuilds(ctx context.Context, deploymentID, teamID string) (*BuildsResponse, error) {
	if deploymentID == "" {
		return nil, errors.New("deployment id is required")
	}

	q := url.Values{}
	if teamID != "" {
		q.Set("teamId", teamID)
	}

	var res BuildsResponse
	if err := c.get(ctx, "/v11/deployments/"+deploymentID+"/builds", q, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// LatestBuild returns the last build of a deployment. Later builds supersede
// earlier retries of the same deployment.
func (c *Client) LatestBuild(ctx context.Context, deploymentID, teamID string) (*Build, error) {
	res, err := c.ListBuilds(ctx, deploymentID, teamID)
	if err != nil {
		return nil, err
	}
	if len(res.Builds) == 0 {
		return nil, fmt.Errorf("%w for deployment with id: %s", ErrNoBuilds, deploymentID)
	}

	build := res.Builds[len(res.Builds)-1]
	state, err := ParseReadyState(string(build.ReadyState))
	if err != nil {
		return nil, err
	}
	build.ReadyState = state
	return &build, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawPath = ""
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", path).
		Str("query", u.RawQuery).
		Msg("Calling Vercel API")

	resp, err := c.conn.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call vercel api %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp, http.MethodGet, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode vercel api response for %s: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response, method, path string) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	apiErr.Code = payload.Error.Code
	apiErr.Message = payload.Error.Message
	return apiErr
}

// retryLogger adapts zerolog to retryablehttp's leveled logger
type retryLogger struct {
	logger zerolog.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
