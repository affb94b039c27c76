package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/mpapenbr/racebet/log"
)

const (
	DefaultDelay    = 250 * time.Millisecond
	DefaultAttempts = 2 // first call plus one retry
)

// ExhaustedError is returned when all attempts failed. It wraps the
// error of the last attempt.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type (
	Option func(*config)
	config struct {
		delay    time.Duration
		attempts int
		l        *log.Logger
	}
)

func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

func WithAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.attempts = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.l = l
	}
}

// Do calls op and retries once after a short fixed delay if it fails.
//
//nolint:whitespace // can't make both editor and linter happy
func Do[T any](
	ctx context.Context,
	name string,
	op func(ctx context.Context) (T, error),
	opts ...Option,
) (T, error) {
	cfg := &config{
		delay:    DefaultDelay,
		attempts: DefaultAttempts,
		l:        log.Default().Named("retry"),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	attempts := 0
	res, err := backoff.Retry(ctx,
		func() (T, error) {
			attempts++
			return op(ctx)
		},
		backoff.WithBackOff(backoff.NewConstantBackOff(cfg.delay)),
		backoff.WithMaxTries(uint(cfg.attempts)),
		backoff.WithNotify(func(err error, d time.Duration) {
			cfg.l.Debug("retrying",
				log.String("op", name),
				log.Duration("delay", d),
				log.ErrorField(err))
		}),
	)
	if err != nil {
		return res, &ExhaustedError{Op: name, Attempts: attempts, Err: err}
	}
	return res, nil
}

// Run is Do for operations without a result.
//
//nolint:whitespace // can't make both editor and linter happy
func Run(
	ctx context.Context,
	name string,
	op func(ctx context.Context) error,
	opts ...Option,
) error {
	_, err := Do(ctx, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
