package delivery

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	PollingInitialInterval   = time.Second
	PollingMaxBackoff        = 10 * time.Second
	PollingBackoffMultiplier = 1.5
)

// Config controls the interval between polls. Zero fields take the package
// defaults.
type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// PollFunc performs one poll and reports whether waiting is over.
type PollFunc func(ctx context.Context) (done bool, err error)

func (c Config) withDefaults() Config {
	if c.InitialInterval <= 0 {
		c.InitialInterval = PollingInitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = PollingMaxBackoff
	}
	if c.MaxInterval < c.InitialInterval {
		c.MaxInterval = c.InitialInterval
	}
	if c.Multiplier < 1 {
		c.Multiplier = PollingBackoffMultiplier
	}
	return c
}

// NewBackOff returns the interval schedule for cfg. It never returns
// backoff.Stop.
func NewBackOff(cfg Config) backoff.BackOff {
	cfg = cfg.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Poll calls fn immediately and then after every interval of the schedule
// until fn reports done or returns an error, or ctx ends. In the last case
// it returns ctx.Err().
func Poll(ctx context.Context, cfg Config, fn PollFunc) error {
	b := NewBackOff(cfg)

	for {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		timer := time.NewTimer(b.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
