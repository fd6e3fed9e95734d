package utils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	gwerrors "github.com/oasislabs/web3-gateway/pkg/errors"
)

func testConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Delay:      time.Millisecond,
		Logger:     zap.NewNop().Sugar(),
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	result, err := RequestResourceWithRetries(context.Background(), testConfig().Logger, func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, fmt.Errorf("transient failure")
		}
		return 42, nil
	}, "fetch", testConfig())

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, attempts)
}

func TestRetryGivesUp(t *testing.T) {
	attempts := 0
	_, err := RequestResourceWithRetries(context.Background(), testConfig().Logger, func() (int, error) {
		attempts++
		return 0, fmt.Errorf("still down")
	}, "fetch", testConfig())

	require.Error(t, err)
	assert.Equal(t, 4, attempts, "initial attempt plus the retries")
	assert.Contains(t, err.Error(), "still down")
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	_, err := RequestResourceWithRetries(context.Background(), testConfig().Logger, func() (int, error) {
		attempts++
		return 0, gwerrors.NewExecutionFailed("test", "fetch", fmt.Errorf("reverted"))
	}, "fetch", testConfig())

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "rejected execution must not be retried")
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := RequestResourceWithRetries(ctx, testConfig().Logger, func() (int, error) {
		attempts++
		cancel()
		return 0, fmt.Errorf("transient failure")
	}, "fetch", testConfig())

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
}
