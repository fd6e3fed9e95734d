package errors

import (
	"errors"
)

// IsRetryable checks if an error can be retried
func IsRetryable(err error) bool {
	var gwErr GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Retryable() != NonRetryable
	}
	return false
}

// IsCritical checks if error is critical severity
func IsCritical(err error) bool {
	var gwErr GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Severity() == Critical
	}
	return false
}

// IsRemoteError checks if error came from the execution runtime path
func IsRemoteError(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr)
}

// IsStateError checks if error came from the snapshot/chain database path
func IsStateError(err error) bool {
	var stateErr *StateError
	return errors.As(err, &stateErr)
}

// IsExecutionError checks if error is a rejected simulated transaction
func IsExecutionError(err error) bool {
	var execErr *ExecutionError
	return errors.As(err, &execErr)
}

// GetErrorCode extracts error code from GatewayError, returns "UNKNOWN" for other errors
func GetErrorCode(err error) string {
	var gwErr GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Code()
	}
	return "UNKNOWN"
}

// WrapError wraps a standard error with GatewayError context
func WrapError(err error, component, operation string) GatewayError {
	if err == nil {
		return nil
	}

	// If already a GatewayError, return as-is
	var gwErr GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}

	return &SystemError{
		baseError: newBaseError("WRAPPED_ERROR", "Wrapped standard error", Error, NonRetryable,
			component, operation, err),
	}
}

// LogContext extracts structured logging context from error
func LogContext(err error) map[string]interface{} {
	var gwErr GatewayError
	if errors.As(err, &gwErr) {
		ctx := gwErr.Context()
		logCtx := map[string]interface{}{
			"error_code": gwErr.Code(),
			"severity":   gwErr.Severity().String(),
			"retryable":  gwErr.Retryable().String(),
			"component":  ctx.Component,
			"operation":  ctx.Operation,
			"timestamp":  ctx.Timestamp,
		}

		if ctx.BlockNumber != nil {
			logCtx["block_number"] = *ctx.BlockNumber
		}

		if ctx.TxHash != nil {
			logCtx["tx_hash"] = *ctx.TxHash
		}

		for k, v := range ctx.Metadata {
			logCtx[k] = v
		}

		return logCtx
	}

	return map[string]interface{}{
		"error":      err.Error(),
		"error_type": "standard_error",
	}
}
