package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(max int) *RetryPolicy {
	return &RetryPolicy{MaxRetries: max, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryWithBackoff_SucceedsAfterTransientErrors(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastPolicy(3), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("ThrottlingException: rate exceeded")
		}
		return nil
	}, IsTransientError)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_PermanentErrorReturnsImmediately(t *testing.T) {
	permanent := errors.New("AccessDenied: not authorized")
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastPolicy(3), func() error {
		attempts++
		return permanent
	}, IsTransientError)

	require.Error(t, err)
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	transient := errors.New("service unavailable")
	attempts := 0
	err := RetryWithBackoff(context.Background(), fastPolicy(2), func() error {
		attempts++
		return transient
	}, IsTransientError)

	require.Error(t, err)
	assert.ErrorIs(t, err, transient)
	assert.Contains(t, err.Error(), "max retries")
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_CancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := RetryWithBackoff(ctx, &RetryPolicy{MaxRetries: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: 50 * time.Millisecond}, func() error {
		attempts++
		cancel()
		return errors.New("connection reset by peer")
	}, IsTransientError)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_NilPolicyUsesDefault(t *testing.T) {
	err := RetryWithBackoff(context.Background(), nil, func() error { return nil }, IsTransientError)
	require.NoError(t, err)
}

func TestBackoffDelayBounded(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := backoffDelay(attempt, time.Second, 10*time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 10*time.Second)
	}
}

func TestIsTransientError(t *testing.T) {
	transient := []error{
		errors.New("ThrottlingException: Rate exceeded"),
		errors.New("dial tcp: i/o timeout"),
		errors.New("503 Service Unavailable"),
		errors.New("read: connection reset by peer"),
		errors.New("RequestLimitExceeded: request limit hit"),
	}
	for _, err := range transient {
		assert.True(t, IsTransientError(err), "expected transient: %v", err)
	}

	permanent := []error{
		errors.New("AccessDenied: not authorized to perform eks:DeleteCluster"),
		errors.New("ValidationError: stack does not exist"),
	}
	for _, err := range permanent {
		assert.False(t, IsTransientError(err), "expected permanent: %v", err)
	}

	assert.False(t, IsTransientError(nil))
}
