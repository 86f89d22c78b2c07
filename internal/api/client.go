package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mailtm/client-go/internal/apierrors"
)

// Defaults applied by NewClient.
const (
	DefaultBaseURL   = "https://api.mail.tm"
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "mailtm-client-go"
)

// Config holds the configuration for creating a new API client.
type Config struct {
	// BaseURL is the service root. Defaults to DefaultBaseURL.
	BaseURL string
	// HTTPClient replaces the underlying *http.Client. Timeout is ignored
	// when it is set.
	HTTPClient *http.Client
	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration
	// UserAgent is sent with every request. Defaults to DefaultUserAgent.
	UserAgent string
	// Token is an initial bearer token.
	Token string
	// Logger receives request logs. Nil disables logging unless Debug is set.
	Logger *zerolog.Logger
	// Debug logs every request and response dump at debug level.
	Debug bool
	// Registerer receives the client's metrics. Nil disables metrics.
	Registerer prometheus.Registerer
}

// Client is the HTTP API client. It owns one resty session bound to the
// base URL; the bearer token is the only state that changes after creation.
type Client struct {
	rc      *resty.Client
	baseURL string
	logger  zerolog.Logger
	metrics *metrics

	mu    sync.RWMutex
	token string
}

// Option configures the API client.
type Option func(*Config)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithToken sets the initial bearer token.
func WithToken(token string) Option {
	return func(c *Config) {
		c.Token = token
	}
}

// New creates a new API client using functional options.
func New(opts ...Option) (*Client, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewClient(cfg)
}

// NewClient creates a new API client from a Config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("base URL must be http or https: %q", cfg.BaseURL)
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	logger := zerolog.Nop()
	switch {
	case cfg.Logger != nil:
		logger = *cfg.Logger
	case cfg.Debug:
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}

	var rc *resty.Client
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	} else {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		rc = resty.New().SetTimeout(timeout)
	}

	rc.SetBaseURL(baseURL).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetLogger(restyLogger{logger: logger}).
		SetDebug(cfg.Debug)

	m, err := newMetrics(cfg.Registerer)
	if err != nil {
		return nil, err
	}

	return &Client{
		rc:      rc,
		baseURL: baseURL,
		logger:  logger,
		metrics: m,
		token:   cfg.Token,
	}, nil
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.rc.GetClient()
}

// Token returns the bearer token attached to requests, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token. An empty token stops sending the
// Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// CloseIdleConnections releases pooled connections of the session.
func (c *Client) CloseIdleConnections() {
	c.rc.GetClient().CloseIdleConnections()
}

// request describes one API call. route is the path template, e.g.
// "/messages/{id}"; it doubles as the metrics label.
type request struct {
	method      string
	route       string
	pathParams  map[string]string
	query       map[string]string
	body        any
	contentType string
}

// Do performs a request against path and decodes a JSON response into result.
// result may be nil, or a *json.RawMessage to keep the raw body.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	return c.send(ctx, request{method: method, route: path, body: body}, result)
}

func (c *Client) send(ctx context.Context, req request, result any) error {
	r := c.rc.R().SetContext(ctx)
	if token := c.Token(); token != "" {
		r.SetAuthToken(token)
	}
	if len(req.pathParams) > 0 {
		r.SetPathParams(req.pathParams)
	}
	if len(req.query) > 0 {
		r.SetQueryParams(req.query)
	}
	if req.body != nil {
		r.SetBody(req.body)
	}
	if req.contentType != "" {
		r.SetHeader("Content-Type", req.contentType)
	}

	start := time.Now()
	resp, err := r.Execute(req.method, req.route)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.observe(req.method, req.route, "error", elapsed)
		c.logger.Debug().
			Err(err).
			Str("method", req.method).
			Str("route", req.route).
			Dur("elapsed", elapsed).
			Msg("HTTP request failed")
		return &apierrors.NetworkError{Err: err, Method: req.method, URL: c.baseURL + req.route}
	}

	status := resp.StatusCode()
	c.metrics.observe(req.method, req.route, strconv.Itoa(status), elapsed)
	c.logger.Debug().
		Str("method", req.method).
		Str("route", req.route).
		Int("status_code", status).
		Dur("elapsed", elapsed).
		Msg("HTTP response")

	if !resp.IsSuccess() {
		return parseErrorResponse(status, resp.Body())
	}

	body := resp.Body()
	if result == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse builds an APIError from a non-2xx response. The service
// answers with Hydra error documents, RFC 7807 problems or {"code","message"}.
func parseErrorResponse(status int, body []byte) error {
	var errResp struct {
		Description string                `json:"hydra:description"`
		Detail      string                `json:"detail"`
		Message     string                `json:"message"`
		Violations  []apierrors.Violation `json:"violations"`
	}

	apiErr := &apierrors.APIError{StatusCode: status}
	if err := json.Unmarshal(body, &errResp); err == nil {
		apiErr.Violations = errResp.Violations
		switch {
		case errResp.Description != "":
			apiErr.Message = errResp.Description
		case errResp.Detail != "":
			apiErr.Message = errResp.Detail
		case errResp.Message != "":
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
