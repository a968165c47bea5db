package readpath

import (
	"context"
	"errors"
	"time"

	"amexing/internal/apierror"
)

// RetryConfig bounds the retry wrapper. MaxRetries counts retries after the
// initial attempt; BaseDelay doubles per attempt (baseDelay * 2^attempt).
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: time.Second}
}

// Retry runs op until it succeeds, fails with a non-transient error, or the
// attempt budget is exhausted. Only ErrTransient (network failure, upstream
// 5xx) is retried — a 4xx fails immediately. The last error is returned
// verbatim so callers see what the transport saw.
func Retry(ctx context.Context, cfg RetryConfig, op func(ctx context.Context) error) error {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}

	var err error
	delay := cfg.BaseDelay
	for attempt := 0; ; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apierror.ErrTransient) {
			return err
		}
		if attempt >= cfg.MaxRetries {
			return err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
}
