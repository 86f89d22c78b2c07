package mailtm

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds client settings read from the environment with the prefix
// "MAILTM_". Example: MAILTM_BASE_URL=https://api.mail.tm MAILTM_TIMEOUT=10s .
type Config struct {
	BaseURL   string        `split_words:"true" default:"https://api.mail.tm"`
	Timeout   time.Duration `default:"30s"`
	UserAgent string        `split_words:"true"`
	Token     string
	Debug     bool `default:"false"`
}

// LoadConfig populates Config from environment variables (prefix MAILTM_).
// Unprefixed variables such as TOKEN are never read.
func LoadConfig() (Config, error) {
	var c Config
	err := envconfig.Process("MAILTM", &c)
	return c, err
}

// Options converts the configuration to client options. Empty values are
// left to the client defaults.
func (c Config) Options() []Option {
	opts := []Option{
		WithBaseURL(c.BaseURL),
		WithTimeout(c.Timeout),
		WithDebug(c.Debug),
	}
	if c.UserAgent != "" {
		opts = append(opts, WithUserAgent(c.UserAgent))
	}
	if c.Token != "" {
		opts = append(opts, WithToken(c.Token))
	}
	return opts
}

// NewFromEnv creates a client configured from the environment. opts are
// applied after the environment, so they win.
func NewFromEnv(opts ...Option) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(append(cfg.Options(), opts...)...)
}
