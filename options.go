package mailtm

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL         = "https://api.mail.tm"
	defaultTimeout         = 30 * time.Second
	defaultWaitTimeout     = 60 * time.Second
	defaultPollInterval    = time.Second
	defaultMaxPollInterval = 10 * time.Second
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	token      string
	logger     *zerolog.Logger
	debug      bool
	registerer prometheus.Registerer
}

// accountConfig holds configuration for random account generation.
type accountConfig struct {
	password string
	domain   string
}

// listConfig holds configuration for collection requests.
type listConfig struct {
	page int
}

// waitConfig holds configuration for waiting on messages.
type waitConfig struct {
	subject         string
	subjectRegex    *regexp.Regexp
	from            string
	fromRegex       *regexp.Regexp
	unseenOnly      bool
	predicate       func(*MessageSummary) bool
	timeout         time.Duration
	pollInterval    time.Duration
	maxPollInterval time.Duration
}

// Option configures the client.
type Option func(*clientConfig)

// AccountOption configures random account generation.
type AccountOption func(*accountConfig)

// ListOption configures collection requests.
type ListOption func(*listConfig)

// WaitOption configures message waiting.
type WaitOption func(*waitConfig)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client. WithTimeout is ignored when a
// client is supplied.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
// Default: 30 seconds
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *clientConfig) {
		c.userAgent = userAgent
	}
}

// WithToken starts the client with an existing bearer token, e.g. one
// restored from a saved session.
func WithToken(token string) Option {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithLogger sets the logger that receives one debug event per request.
// The client is silent by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = &logger
	}
}

// WithDebug logs every request and response, including full dumps. The dumps
// contain the Authorization header; do not enable it where logs are shared.
func WithDebug(enabled bool) Option {
	return func(c *clientConfig) {
		c.debug = enabled
	}
}

// WithMetrics registers request counters and latency histograms with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}

// WithPassword uses password instead of generating one.
func WithPassword(password string) AccountOption {
	return func(c *accountConfig) {
		c.password = password
	}
}

// WithDomain registers the account on domain instead of the first active
// one. The domain must be listed by the service.
func WithDomain(domain string) AccountOption {
	return func(c *accountConfig) {
		c.domain = domain
	}
}

// WithPage requests the given page of a collection (1-based).
func WithPage(page int) ListOption {
	return func(c *listConfig) {
		c.page = page
	}
}

// WithSubject filters messages by exact subject match.
func WithSubject(subject string) WaitOption {
	return func(c *waitConfig) {
		c.subject = subject
	}
}

// WithSubjectRegex filters messages by subject regex.
func WithSubjectRegex(pattern *regexp.Regexp) WaitOption {
	return func(c *waitConfig) {
		c.subjectRegex = pattern
	}
}

// WithFrom filters messages by sender address, ignoring case.
func WithFrom(from string) WaitOption {
	return func(c *waitConfig) {
		c.from = from
	}
}

// WithFromRegex filters messages by sender address regex.
func WithFromRegex(pattern *regexp.Regexp) WaitOption {
	return func(c *waitConfig) {
		c.fromRegex = pattern
	}
}

// WithUnseenOnly ignores messages already marked as seen.
func WithUnseenOnly() WaitOption {
	return func(c *waitConfig) {
		c.unseenOnly = true
	}
}

// WithPredicate filters messages by custom predicate.
func WithPredicate(fn func(*MessageSummary) bool) WaitOption {
	return func(c *waitConfig) {
		c.predicate = fn
	}
}

// WithWaitTimeout sets the timeout for waiting.
// Default: 60 seconds
func WithWaitTimeout(timeout time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.timeout = timeout
	}
}

// WithPollInterval sets the initial polling interval. The interval grows by
// half after every poll, up to 10 seconds or the initial interval if larger.
// Default: 1 second
func WithPollInterval(interval time.Duration) WaitOption {
	return func(c *waitConfig) {
		c.pollInterval = interval
	}
}

// Matches checks if a message matches the wait criteria.
func (w *waitConfig) Matches(m *MessageSummary) bool {
	if w.subject != "" && m.Subject != w.subject {
		return false
	}
	if w.subjectRegex != nil && !w.subjectRegex.MatchString(m.Subject) {
		return false
	}
	if w.from != "" && !strings.EqualFold(m.From.Address, w.from) {
		return false
	}
	if w.fromRegex != nil && !w.fromRegex.MatchString(m.From.Address) {
		return false
	}
	if w.unseenOnly && m.Seen {
		return false
	}
	if w.predicate != nil && !w.predicate(m) {
		return false
	}
	return true
}
