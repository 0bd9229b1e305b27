// Package linear is the issue tracker client: a GraphQL transport with
// retries and client-side rate limiting, the queries the board needs, and a
// single background poller that publishes issue snapshots on the event bus.
package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Benbentwo/aim/internal/domain"
	"github.com/Benbentwo/aim/internal/events"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the Linear GraphQL API
const DefaultEndpoint = "https://api.linear.app/graphql"

// Options configures a Client. Zero values take the defaults.
type Options struct {
	Endpoint     string
	APIKey       string
	OAuthToken   string
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RequestsPerSecond bounds outgoing requests; burst is the same value
	RequestsPerSecond float64
	// MinPollInterval is the floor applied to StartPolling intervals
	MinPollInterval time.Duration
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		Endpoint:          DefaultEndpoint,
		Timeout:           30 * time.Second,
		RetryMax:          3,
		RetryWaitMin:      time.Second,
		RetryWaitMax:      30 * time.Second,
		RequestsPerSecond: 5,
		MinPollInterval:   MinPollInterval,
	}
}

// Client talks to the issue tracker
type Client struct {
	http     *retryablehttp.Client
	limiter  *rate.Limiter
	endpoint string
	bus      *events.Bus
	logger   *slog.Logger
	minPoll  time.Duration

	mu         sync.RWMutex
	apiKey     string
	oauthToken string

	pollMu     sync.Mutex
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// NewClient creates a tracker client. bus receives polled snapshots.
func NewClient(bus *events.Bus, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.Endpoint == "" {
		opts.Endpoint = def.Endpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = def.RetryMax
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = def.RetryWaitMin
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = def.RetryWaitMax
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = def.RequestsPerSecond
	}
	if opts.MinPollInterval <= 0 {
		opts.MinPollInterval = def.MinPollInterval
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = logger.With("component", "linear-http")

	return &Client{
		http:       rc,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), int(opts.RequestsPerSecond)+1),
		endpoint:   opts.Endpoint,
		bus:        bus,
		logger:     logger,
		minPoll:    opts.MinPollInterval,
		apiKey:     opts.APIKey,
		oauthToken: opts.OAuthToken,
	}
}

// SetCredentials replaces the stored credentials without validating them
func (c *Client) SetCredentials(apiKey, oauthToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = apiKey
	c.oauthToken = oauthToken
}

// IsConnected reports whether any credential is configured
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey != "" || c.oauthToken != ""
}

// ValidateAPIKey stores key if the tracker accepts it and returns the
// authenticated user. A rejected key leaves the previous credentials in place.
func (c *Client) ValidateAPIKey(ctx context.Context, key string) (domain.User, error) {
	c.mu.Lock()
	oldKey, oldToken := c.apiKey, c.oauthToken
	c.apiKey, c.oauthToken = key, ""
	c.mu.Unlock()

	me, err := c.Me(ctx)
	if err != nil {
		c.SetCredentials(oldKey, oldToken)
		return domain.User{}, err
	}
	return me, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// authHeader returns the Authorization value: a bearer OAuth token when
// present, otherwise the raw API key.
func (c *Client) authHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.oauthToken != "" {
		return "Bearer " + c.oauthToken
	}
	return c.apiKey
}

// do runs one GraphQL operation and decodes its data into out
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	auth := c.authHeader()
	if auth == "" {
		return &domain.TrackerError{Op: op, Err: domain.ErrNotConnected}
	}

	body, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return &domain.TrackerError{Op: op, Message: "marshal request", Err: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &domain.TrackerError{Op: op, Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &domain.TrackerError{Op: op, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)

	c.logger.Debug("tracker request", "op", op)

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.TrackerError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TrackerError{Op: op, Message: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &domain.TrackerError{Op: op, Status: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
	}

	var gql graphqlResponse
	if err := json.Unmarshal(data, &gql); err != nil {
		return &domain.TrackerError{Op: op, Message: "decode response", Err: err}
	}
	if len(gql.Errors) > 0 {
		return &domain.TrackerError{Op: op, Message: gql.Errors[0].Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gql.Data, out); err != nil {
		return &domain.TrackerError{Op: op, Message: fmt.Sprintf("decode %s", op), Err: err}
	}
	return nil
}
