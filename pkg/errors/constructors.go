package errors

import (
	"time"
)

// Error code constants for monitoring and metrics
const (
	// Remote error codes
	CodeRuntimeCallFailed = "RUNTIME_CALL_FAILED"
	CodeRuntimeNoResponse = "RUNTIME_NO_RESPONSE"
	CodeConnectionFailed  = "RUNTIME_CONNECTION_FAILED"

	// State error codes
	CodeStateUnavailable = "STATE_UNAVAILABLE"
	CodeStateCorrupt     = "STATE_CORRUPT"
	CodeChainCorrupt     = "CHAIN_CORRUPT"

	// Execution error codes
	CodeExecutionFailed = "EXECUTION_FAILED"

	// System error codes
	CodeConfigurationError = "CONFIGURATION_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// RemoteError constructors

// NewRuntimeCallFailed creates an error for a failed execution runtime call
func NewRuntimeCallFailed(component, operation string, underlying error, ctx ...ContextOption) GatewayError {
	return &RemoteError{
		baseError: newBaseError(CodeRuntimeCallFailed, "Execution runtime call failed", Error, Retryable,
			component, operation, underlying, ctx...),
	}
}

// NewRuntimeNoResponse creates an error for a runtime call that resolved without a payload
func NewRuntimeNoResponse(component, operation string, ctx ...ContextOption) GatewayError {
	return &RemoteError{
		baseError: newBaseError(CodeRuntimeNoResponse, "No response from runtime", Error, Retryable,
			component, operation, nil, ctx...),
	}
}

// NewConnectionFailed creates an error for runtime transport connection failures
func NewConnectionFailed(component, operation string, underlying error, ctx ...ContextOption) GatewayError {
	return &RemoteError{
		baseError: newBaseError(CodeConnectionFailed, "Failed to connect to execution runtime", Error, RetryableWithBackoff,
			component, operation, underlying, ctx...),
	}
}

// StateError constructors

// NewStateUnavailable creates an error for a snapshot that could not be opened
func NewStateUnavailable(component, operation string, underlying error, ctx ...ContextOption) GatewayError {
	return &StateError{
		baseError: newBaseError(CodeStateUnavailable, "Chain database snapshot unavailable", Warning, NonRetryable,
			component, operation, underlying, ctx...),
	}
}

// NewStateCorrupt creates an error for an unresolvable historical state root
func NewStateCorrupt(component, operation string, underlying error, ctx ...ContextOption) GatewayError {
	return &StateError{
		baseError: newBaseError(CodeStateCorrupt, "Historical state could not be resolved", Error, NonRetryable,
			component, operation, underlying, ctx...),
	}
}

// NewChainCorrupt creates an error for inconsistent chain records, e.g. a
// parent hash with no stored header
func NewChainCorrupt(component, operation string, underlying error, ctx ...ContextOption) GatewayError {
	return &StateError{
		baseError: newBaseError(CodeChainCorrupt, "Chain records are inconsistent", Critical, NonRetryable,
			component, operation, underlying, ctx...),
	}
}

// ExecutionError constructors

// NewExecutionFailed creates an error for a rejected simulated transaction
func NewExecutionFailed(component, operation string, underlying error, ctx ...ContextOption) GatewayError {
	return &ExecutionError{
		baseError: newBaseError(CodeExecutionFailed, "Transaction execution rejected", Error, NonRetryable,
			component, operation, underlying, ctx...),
	}
}

// SystemError constructors

// NewConfigurationError creates an error for system configuration issues
func NewConfigurationError(component, operation, issue string, underlying error, ctx ...ContextOption) GatewayError {
	message := "Configuration error: " + issue
	return &SystemError{
		baseError: newBaseError(CodeConfigurationError, message, Critical, NonRetryable,
			component, operation, underlying, ctx...),
	}
}

// NewServiceUnavailable creates an error when a critical service is unavailable
func NewServiceUnavailable(component, operation, service string, underlying error, ctx ...ContextOption) GatewayError {
	message := "Service unavailable: " + service
	return &SystemError{
		baseError: newBaseError(CodeServiceUnavailable, message, Critical, RetryableWithBackoff,
			component, operation, underlying, ctx...),
	}
}

// Helper functions

// newBaseError creates a baseError with consistent context
func newBaseError(code, message string, severity Severity, retryable RetryBehavior,
	component, operation string, underlying error, contextOptions ...ContextOption) *baseError {

	context := ErrorContext{
		Component: component,
		Operation: operation,
		Timestamp: time.Now(),
		Metadata:  make(map[string]interface{}),
	}

	for _, opt := range contextOptions {
		opt(&context)
	}

	return &baseError{
		code:       code,
		message:    message,
		severity:   severity,
		retryable:  retryable,
		context:    context,
		underlying: underlying,
	}
}

// ContextOption allows flexible context configuration
type ContextOption func(*ErrorContext)

// WithBlockNumber adds block number to error context
func WithBlockNumber(blockNumber int64) ContextOption {
	return func(ctx *ErrorContext) {
		ctx.BlockNumber = &blockNumber
	}
}

// WithTxHash adds transaction hash to error context
func WithTxHash(txHash string) ContextOption {
	return func(ctx *ErrorContext) {
		ctx.TxHash = &txHash
	}
}

// WithMetadata adds arbitrary metadata to error context
func WithMetadata(key string, value interface{}) ContextOption {
	return func(ctx *ErrorContext) {
		if ctx.Metadata == nil {
			ctx.Metadata = make(map[string]interface{})
		}
		ctx.Metadata[key] = value
	}
}
