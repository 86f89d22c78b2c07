package mailtm

import (
	"context"
	"fmt"
	"sync"

	"github.com/mailtm/client-go/internal/api"
	"github.com/mailtm/client-go/internal/crypto"
)

// Random account parameters.
const (
	// UsernameLength is the length of generated usernames.
	UsernameLength = 10
	// UsernameAlphabet holds the characters of generated usernames.
	UsernameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// PasswordLength is the length of generated passwords.
	PasswordLength = 12
	// PasswordAlphabet holds the characters of generated passwords.
	PasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"
)

// Client is a mail.tm API client. It is safe for concurrent use.
type Client struct {
	apiClient *api.Client
	accountID string
	mu        sync.RWMutex
	closed    bool
}

// buildAPIClient creates and configures an API client from the given config.
func buildAPIClient(cfg *clientConfig) (*api.Client, error) {
	return api.NewClient(api.Config{
		BaseURL:    cfg.baseURL,
		HTTPClient: cfg.httpClient,
		Timeout:    cfg.timeout,
		UserAgent:  cfg.userAgent,
		Token:      cfg.token,
		Logger:     cfg.logger,
		Debug:      cfg.debug,
		Registerer: cfg.registerer,
	})
}

// New creates a new mail.tm client. No request is made until the first
// operation.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		baseURL: defaultBaseURL,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	apiClient, err := buildAPIClient(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{apiClient: apiClient}, nil
}

// checkClosed returns ErrClientClosed if the client has been closed.
func (c *Client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

// Close clears the token and releases idle connections. Every later call
// returns ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.accountID = ""
	c.mu.Unlock()

	c.apiClient.SetToken("")
	c.apiClient.CloseIdleConnections()
	return nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.apiClient.BaseURL()
}

// Token returns the bearer token, or "" before Login.
func (c *Client) Token() string {
	return c.apiClient.Token()
}

// SetToken installs a bearer token obtained elsewhere, e.g. from a saved
// session.
func (c *Client) SetToken(token string) {
	c.apiClient.SetToken(token)
}

// ClearToken stops sending the Authorization header.
func (c *Client) ClearToken() {
	c.mu.Lock()
	c.accountID = ""
	c.mu.Unlock()
	c.apiClient.SetToken("")
}

// AccountID returns the account id returned by the last Login, or "".
func (c *Client) AccountID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accountID
}

// Domains lists the domains on which addresses can be registered.
func (c *Client) Domains(ctx context.Context, opts ...ListOption) ([]Domain, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	cfg := listOptions(opts)
	raw, err := c.apiClient.GetDomains(ctx, cfg.page)
	if err != nil {
		return nil, wrapError(err)
	}
	return api.DecodeMembers[Domain](raw), nil
}

// Domain retrieves a domain by id.
func (c *Client) Domain(ctx context.Context, id string) (*Domain, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidArgument("domain id")
	}

	d, err := c.apiClient.GetDomain(ctx, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return d, nil
}

// CreateAccount registers address with password. It does not log in.
func (c *Client) CreateAccount(ctx context.Context, address, password string) (*Account, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if address == "" {
		return nil, invalidArgument("address")
	}
	if password == "" {
		return nil, invalidArgument("password")
	}

	account, err := c.apiClient.CreateAccount(ctx, api.Credentials{Address: address, Password: password})
	if err != nil {
		return nil, wrapError(err)
	}
	return account, nil
}

// GenerateRandomAccount registers a random address and returns the account
// with its password. The username has UsernameLength characters from
// UsernameAlphabet; unless WithPassword is given, the password has
// PasswordLength characters from PasswordAlphabet.
func (c *Client) GenerateRandomAccount(ctx context.Context, opts ...AccountOption) (*Account, string, error) {
	if err := c.checkClosed(); err != nil {
		return nil, "", err
	}

	cfg := &accountConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	domains, err := c.Domains(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list domains: %w", err)
	}
	domain, err := pickDomain(domains, cfg.domain)
	if err != nil {
		return nil, "", err
	}

	username, err := crypto.RandomString(UsernameAlphabet, UsernameLength)
	if err != nil {
		return nil, "", fmt.Errorf("generate username: %w", err)
	}
	password := cfg.password
	if password == "" {
		password, err = crypto.RandomString(PasswordAlphabet, PasswordLength)
		if err != nil {
			return nil, "", fmt.Errorf("generate password: %w", err)
		}
	}

	account, err := c.CreateAccount(ctx, username+"@"+domain, password)
	if err != nil {
		return nil, "", err
	}
	return account, password, nil
}

// pickDomain returns want if it is listed, else the first active domain,
// else the first domain.
func pickDomain(domains []Domain, want string) (string, error) {
	if len(domains) == 0 {
		return "", ErrNoDomains
	}
	if want != "" {
		for _, d := range domains {
			if d.Domain == want {
				return want, nil
			}
		}
		return "", &ArgumentError{Name: "domain", Reason: fmt.Sprintf("%q is not offered", want)}
	}
	for _, d := range domains {
		if d.IsActive {
			return d.Domain, nil
		}
	}
	return domains[0].Domain, nil
}

// Login exchanges credentials for a bearer token and attaches it to every
// following request of this client.
func (c *Client) Login(ctx context.Context, address, password string) (*Token, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if address == "" {
		return nil, invalidArgument("address")
	}
	if password == "" {
		return nil, invalidArgument("password")
	}

	tok, err := c.apiClient.GetToken(ctx, api.Credentials{Address: address, Password: password})
	if err != nil {
		return nil, wrapError(err)
	}
	if tok.Token == "" {
		return nil, &ResponseError{Operation: "login", Reason: "response carried no token"}
	}

	c.mu.Lock()
	c.accountID = tok.ID
	c.mu.Unlock()
	c.apiClient.SetToken(tok.Token)

	return tok, nil
}

// Me returns the account the token belongs to.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	account, err := c.apiClient.GetMe(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return account, nil
}

// Account retrieves an account by id.
func (c *Client) Account(ctx context.Context, id string) (*Account, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidArgument("account id")
	}

	account, err := c.apiClient.GetAccount(ctx, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return account, nil
}

// DeleteAccount deletes an account by id. The token stays installed.
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if id == "" {
		return invalidArgument("account id")
	}
	return wrapError(c.apiClient.DeleteAccount(ctx, id))
}

// Messages lists the messages of the logged-in account, newest first.
func (c *Client) Messages(ctx context.Context, opts ...ListOption) ([]MessageSummary, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	cfg := listOptions(opts)
	raw, err := c.apiClient.GetMessages(ctx, cfg.page)
	if err != nil {
		return nil, wrapError(err)
	}
	return api.DecodeMembers[MessageSummary](raw), nil
}

// MessageCount returns the total number of messages of the logged-in account.
func (c *Client) MessageCount(ctx context.Context) (int, error) {
	if err := c.checkClosed(); err != nil {
		return 0, err
	}

	raw, err := c.apiClient.GetMessages(ctx, 0)
	if err != nil {
		return 0, wrapError(err)
	}
	return api.CountMembers[MessageSummary](raw), nil
}

// Message retrieves a message by id.
func (c *Client) Message(ctx context.Context, id string) (*Message, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidArgument("message id")
	}

	msg, err := c.apiClient.GetMessage(ctx, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return msg, nil
}

// MarkAsSeen marks a message as seen and returns it as the service reports
// it after the update.
func (c *Client) MarkAsSeen(ctx context.Context, id string) (*Message, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidArgument("message id")
	}

	msg, err := c.apiClient.SetMessageSeen(ctx, id, true)
	if err != nil {
		return nil, wrapError(err)
	}
	return msg, nil
}

// DeleteMessage deletes a message by id.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if id == "" {
		return invalidArgument("message id")
	}
	return wrapError(c.apiClient.DeleteMessage(ctx, id))
}

// MessageSource retrieves the raw source of a message.
func (c *Client) MessageSource(ctx context.Context, id string) (*Source, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidArgument("message id")
	}

	src, err := c.apiClient.GetSource(ctx, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return src, nil
}

func listOptions(opts []ListOption) *listConfig {
	cfg := &listConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
