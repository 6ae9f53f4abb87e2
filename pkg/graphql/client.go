package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/braintree-graphql-client/internal/logger"
	"github.com/samvad-hq/braintree-graphql-client/pkg/authorization"
	"github.com/samvad-hq/braintree-graphql-client/pkg/httpclient"
)

const (
	// ProductionURL is the default GraphQL endpoint.
	ProductionURL = "https://payments.braintree-api.com/graphql"

	// SandboxURL is the GraphQL endpoint for sandbox credentials.
	SandboxURL = "https://payments.sandbox.braintree-api.com/graphql"

	// APIVersion is sent as Braintree-Version on every request.
	APIVersion = "2016-10-07"

	// Version identifies this client in the User-Agent header.
	Version = "2.6.2"

	userAgentPrefix = "braintree/android/"
)

// Header names set on every request. Content-Type is added for POST bodies.
const (
	HeaderUserAgent        = "User-Agent"
	HeaderAuthorization    = "Authorization"
	HeaderBraintreeVersion = "Braintree-Version"
	HeaderContentType      = "Content-Type"
)

// ErrNilAuthorization is returned by NewClient when no credential is supplied.
var ErrNilAuthorization = errors.New("graphql client requires an authorization")

// UserAgent returns the fixed User-Agent string.
func UserAgent() string { return userAgentPrefix + Version }

// Client issues authenticated requests against the Braintree GraphQL API.
// The credential is fixed for the lifetime of the client; each call builds its
// own request, so concurrent calls do not share mutable state.
type Client struct {
	auth authorization.Authorization
	http httpclient.Client
	log  logger.Logger

	mu      sync.RWMutex
	baseURL string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the production endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSpace(u) }
}

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request on the default resty transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = httpclient.NewRestyClient(d) }
}

// WithLogger attaches a structured logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient builds a client for auth. The base URL defaults to ProductionURL.
func NewClient(auth authorization.Authorization, opts ...Option) (*Client, error) {
	if auth == nil {
		return nil, ErrNilAuthorization
	}
	c := &Client{
		auth:    auth,
		baseURL: ProductionURL,
		log:     &logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(0)
	}
	if c.baseURL == "" {
		c.baseURL = ProductionURL
	}
	return c, nil
}

// SetBaseURL points subsequent calls at another endpoint.
func (c *Client) SetBaseURL(u string) {
	u = strings.TrimSpace(u)
	if u == "" {
		u = ProductionURL
	}
	c.mu.Lock()
	c.baseURL = u
	c.mu.Unlock()
}

// BaseURL returns the endpoint calls are issued against.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Headers returns the header set every request carries.
func (c *Client) Headers() map[string]string {
	return map[string]string{
		HeaderUserAgent:        UserAgent(),
		HeaderAuthorization:    authorization.HeaderValue(c.auth),
		HeaderBraintreeVersion: APIVersion,
	}
}

// Get issues a GET to baseURL+path on its own goroutine and reports the
// outcome to cb exactly once.
func (c *Client) Get(ctx context.Context, path string, cb ResponseCallback) {
	c.dispatch(ctx, http.MethodGet, path, nil, cb)
}

// Post sends body to baseURL+path as JSON and reports the outcome to cb
// exactly once.
func (c *Client) Post(ctx context.Context, path string, body []byte, cb ResponseCallback) {
	c.dispatch(ctx, http.MethodPost, path, body, cb)
}

// Query posts a GraphQL document with optional variables to the base URL.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any, cb ResponseCallback) {
	payload, err := json.Marshal(Request{Query: query, Variables: variables})
	if err != nil {
		go deliver(cb, "", fmt.Errorf("encode graphql request: %w", err))
		return
	}
	c.Post(ctx, "", payload, cb)
}

// Request is the JSON envelope accepted by the GraphQL endpoint.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

func (c *Client) dispatch(ctx context.Context, method, path string, body []byte, cb ResponseCallback) {
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		resp, err := c.Do(ctx, method, path, body)
		deliver(cb, resp, err)
	}()
}

func deliver(cb ResponseCallback, body string, err error) {
	if cb == nil {
		return
	}
	if err != nil {
		cb.Failure(err)
		return
	}
	cb.Success(body)
}

// Do performs a single request synchronously. Transport errors are returned
// unchanged; responses outside 2xx become *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (string, error) {
	target := c.BaseURL() + path
	headers := c.Headers()
	start := time.Now()

	var (
		resp httpclient.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = c.http.Get(ctx, target, headers)
	case http.MethodPost:
		headers[HeaderContentType] = "application/json"
		resp, err = c.http.Post(ctx, target, headers, body)
	default:
		return "", fmt.Errorf("unsupported method %q", method)
	}

	if err != nil {
		c.log.DebugObj("graphql request failed", "graphql_request", map[string]any{
			"method":     method,
			"url":        target,
			"elapsed_ms": time.Since(start).Milliseconds(),
			"error":      err.Error(),
		})
		return "", err
	}

	c.log.DebugObj("graphql request completed", "graphql_request", map[string]any{
		"method":      method,
		"url":         target,
		"status_code": resp.StatusCode(),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return "", &StatusError{StatusCode: code, Body: string(resp.Body())}
	}
	return string(resp.Body()), nil
}
