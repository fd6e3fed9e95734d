package utils

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	gwerrors "github.com/oasislabs/web3-gateway/pkg/errors"
)

type RetryConfig struct {
	MaxRetries int
	Delay      time.Duration
	Logger     *zap.SugaredLogger
}

func DefaultRetryConfig(logger *zap.SugaredLogger) RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Delay:      time.Second,
		Logger:     logger,
	}
}

// RequestResourceWithRetries executes an operation with retry logic.
// Typed errors flagged non-retryable stop the attempts early, and a
// cancelled context aborts between attempts.
// Config is optional - if not provided, uses DefaultRetryConfig
func RequestResourceWithRetries[T any](
	ctx context.Context,
	logger *zap.SugaredLogger,
	operation func() (T, error),
	operationName string,
	configs ...RetryConfig,
) (T, error) {
	var config RetryConfig
	if len(configs) > 0 {
		config = configs[0]
	} else {
		config = DefaultRetryConfig(logger)
	}

	var result T
	var lastErr error

	for retries := 0; retries <= config.MaxRetries; retries++ {
		if retries > 0 {
			select {
			case <-ctx.Done():
				return result, fmt.Errorf("aborted %s after %d attempts: %w", operationName, retries, ctx.Err())
			case <-time.After(config.Delay):
			}
		}

		result, lastErr = operation()
		if lastErr == nil {
			if retries > 0 {
				config.Logger.Infow("operation succeeded after retries",
					"operation", operationName, "retries", retries)
			}
			return result, nil
		}

		config.Logger.Errorw("operation failed",
			"operation", operationName,
			"attempt", retries+1,
			"maxAttempts", config.MaxRetries+1,
			"error", lastErr)

		if gwerrors.GetErrorCode(lastErr) != "UNKNOWN" && !gwerrors.IsRetryable(lastErr) {
			break
		}
	}

	return result, fmt.Errorf("failed %s: %w", operationName, lastErr)
}
