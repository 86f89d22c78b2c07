package mailtm

import (
	"context"
	"fmt"

	"github.com/mailtm/client-go/internal/delivery"
)

func newWaitConfig(opts []WaitOption) *waitConfig {
	cfg := &waitConfig{
		timeout:         defaultWaitTimeout,
		pollInterval:    defaultPollInterval,
		maxPollInterval: defaultMaxPollInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WaitForMessage polls the inbox until a message matches the given criteria
// and returns it fully fetched. Messages already in the inbox count.
//
// Example:
//
//	msg, err := client.WaitForMessage(ctx,
//	    mailtm.WithSubjectRegex(regexp.MustCompile(`(?i)verify`)),
//	    mailtm.WithWaitTimeout(2*time.Minute),
//	)
func (c *Client) WaitForMessage(ctx context.Context, opts ...WaitOption) (*Message, error) {
	matches, err := c.waitForMessages(ctx, 1, "wait for message", opts)
	if err != nil {
		return nil, err
	}
	return c.Message(ctx, matches[0].ID)
}

// WaitForMessageCount polls the inbox until at least count messages match
// the given criteria and returns the first count of them.
func (c *Client) WaitForMessageCount(ctx context.Context, count int, opts ...WaitOption) ([]MessageSummary, error) {
	if count < 0 {
		return nil, &ArgumentError{Name: "count", Reason: fmt.Sprintf("must be non-negative, got %d", count)}
	}
	if count == 0 {
		return []MessageSummary{}, nil
	}
	return c.waitForMessages(ctx, count, "wait for message count", opts)
}

func (c *Client) waitForMessages(ctx context.Context, count int, operation string, opts []WaitOption) ([]MessageSummary, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if c.Token() == "" {
		return nil, ErrNotAuthenticated
	}

	cfg := newWaitConfig(opts)

	waitCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	// Track seen message IDs to avoid duplicates
	seen := make(map[string]struct{})
	var results []MessageSummary

	poll := func(ctx context.Context) (bool, error) {
		msgs, err := c.Messages(ctx)
		if err != nil {
			return false, err
		}
		for i := range msgs {
			m := &msgs[i]
			if _, ok := seen[m.ID]; ok {
				continue
			}
			if cfg.Matches(m) {
				seen[m.ID] = struct{}{}
				results = append(results, *m)
			}
		}
		return len(results) >= count, nil
	}

	err := delivery.Poll(waitCtx, delivery.Config{
		InitialInterval: cfg.pollInterval,
		MaxInterval:     cfg.maxPollInterval,
	}, poll)
	if err != nil {
		// The caller's own cancellation or deadline wins over ours.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if waitCtx.Err() != nil {
			return nil, &TimeoutError{Operation: operation, Timeout: cfg.timeout}
		}
		return nil, err
	}

	return results[:count], nil
}
