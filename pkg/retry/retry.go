// Package retry runs an operation with exponential backoff, retrying only the errors the caller
// classifies as transient.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Config defines retry behavior with exponential backoff.
type Config struct {
	// MaxRetries is the number of attempts after the first; 0 runs the operation once.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0, +/- fraction applied to each delay
}

// DefaultConfig suits calls to a remote model endpoint: 2 retries from 500ms, capped at 5s.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// Do calls fn until it succeeds, returns an error that retryable rejects, or the attempts run
// out. The last result and error are returned. A nil retryable retries every error; a nil cfg
// uses DefaultConfig. Cancelling ctx during a wait returns ctx.Err().
func Do[T any](ctx context.Context, cfg *Config, retryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	delay := cfg.InitialDelay
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= cfg.MaxRetries || (retryable != nil && !retryable(err)) {
			return result, err
		}

		timer := time.NewTimer(applyJitter(delay, cfg.JitterFactor))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}
