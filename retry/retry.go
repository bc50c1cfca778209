// Package retry wraps remote operations with bounded exponential
// backoff. It knows nothing about the stages it wraps; callers tag
// failures into the error taxonomy themselves.
package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultAttempts     = 3
	DefaultInitialDelay = time.Second
)

// Sleeper waits for d or until ctx is done. Injected so tests never
// sleep for real.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Option tunes a Do call.
type Option func(*settings)

type settings struct {
	attempts int
	delay    time.Duration
	sleep    Sleeper
}

// Attempts sets the total number of tries (not extra retries).
func Attempts(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// InitialDelay sets the first backoff step; each retry doubles it.
func InitialDelay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithSleeper replaces the real clock.
func WithSleeper(sl Sleeper) Option {
	return func(s *settings) {
		if sl != nil {
			s.sleep = sl
		}
	}
}

// Do runs fn up to the configured number of attempts, doubling the
// backoff delay between failures. The error from the final attempt is
// returned as-is so callers can classify it.
func Do[T any](ctx context.Context, label string, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	s := settings{attempts: DefaultAttempts, delay: DefaultInitialDelay, sleep: sleep}
	for _, opt := range opts {
		opt(&s)
	}

	var lastErr error
	var zero T
	delay := s.delay

	for attempt := 1; attempt <= s.attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == s.attempts {
			break
		}
		log.Warn().
			Str("context", label).
			Int("attempt", attempt).
			Dur("nextDelay", delay).
			Err(err).
			Msg("Operation failed, retrying...")
		if serr := s.sleep(ctx, delay); serr != nil {
			return zero, serr
		}
		delay *= 2
	}

	return zero, lastErr
}
