package readpath

import (
	"context"
	"fmt"
	"testing"
	"time"

	"amexing/internal/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryTransientUntilSuccess(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond}

	attempts := 0
	err := Retry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("upstream 503: %w", apierror.ErrTransient)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryNonTransientFailsImmediately(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond}

	attempts := 0
	err := Retry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return fmt.Errorf("quote q1: %w", apierror.ErrNotFound)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Equal(t, 1, attempts)
}

func TestRetryBudgetExhaustedReturnsLastError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}

	attempts := 0
	err := Retry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return fmt.Errorf("intento %d: %w", attempts, apierror.ErrTransient)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrTransient)
	assert.Contains(t, err.Error(), "intento 3")
	assert.Equal(t, 3, attempts) // initial + 2 retries
}

func TestRetryDelayDoubles(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: 20 * time.Millisecond}

	var stamps []time.Time
	_ = Retry(context.Background(), cfg, func(ctx context.Context) error {
		stamps = append(stamps, time.Now())
		return apierror.ErrTransient
	})
	require.Len(t, stamps, 3)

	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])
	assert.GreaterOrEqual(t, first, 20*time.Millisecond)
	assert.GreaterOrEqual(t, second, 40*time.Millisecond)
}

func TestRetryRespectsContextCancel(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Retry(ctx, cfg, func(ctx context.Context) error {
			return apierror.ErrTransient
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Retry no abortó tras cancelar el contexto")
	}
}

func TestRetryZeroBudgetRunsOnce(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond}, func(ctx context.Context) error {
		attempts++
		return apierror.ErrTransient
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
