package errors

import (
	"fmt"
	"time"
)

// Severity levels for error classification
type Severity int

const (
	// Info - Notable events for monitoring/debugging (non-blocking)
	Info Severity = iota
	// Warning - Issue detected but operation succeeded with degraded quality
	Warning
	// Error - Operation failed but system can continue with next request
	Error
	// Critical - System cannot continue, requires immediate attention
	Critical
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// RetryBehavior indicates how the system should handle retry logic
type RetryBehavior int

const (
	// NonRetryable - Permanent errors (invalid data, rejected execution)
	NonRetryable RetryBehavior = iota
	// Retryable - Can be retried immediately (network timeouts, temp issues)
	Retryable
	// RetryableWithBackoff - Requires exponential backoff (rate limiting, resource exhaustion)
	RetryableWithBackoff
)

func (r RetryBehavior) String() string {
	switch r {
	case NonRetryable:
		return "NON_RETRYABLE"
	case Retryable:
		return "RETRYABLE"
	case RetryableWithBackoff:
		return "RETRYABLE_WITH_BACKOFF"
	default:
		return "UNKNOWN"
	}
}

// ErrorContext provides structured context for debugging and monitoring
type ErrorContext struct {
	Component   string                 `json:"component"` // Which component (e.g., "statedb", "runtime", "gateway")
	Operation   string                 `json:"operation"` // What operation (e.g., "Call", "get_block_height")
	BlockNumber *int64                 `json:"blockNumber,omitempty"`
	TxHash      *string                `json:"txHash,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// GatewayError is the main error interface for the gateway's state-access core
//
// Usage Guidelines:
// - Use RemoteError for runtime transport/application failures (often retryable)
// - Use StateError for snapshot/chain database failures (usually not retryable here;
//   the read path falls back to the runtime instead)
// - Use ExecutionError for transaction simulation rejections (non-retryable)
// - Use SystemError for critical system-level failures
//
// Not-found is never an error: absent blocks, transactions and receipts are
// reported as empty/optional results by the components themselves.
type GatewayError interface {
	error

	// Code returns a standardized error code for monitoring/metrics
	Code() string

	// Severity returns the severity level for logging and alerting
	Severity() Severity

	// Retryable returns the retry behavior recommendation
	Retryable() RetryBehavior

	// Context returns structured context for debugging
	Context() ErrorContext

	// Unwrap returns the underlying error for error wrapping
	Unwrap() error
}

// baseError provides common functionality for all error types
type baseError struct {
	code       string
	message    string
	severity   Severity
	retryable  RetryBehavior
	context    ErrorContext
	underlying error
}

func (e *baseError) Error() string {
	if e.underlying != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.underlying)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *baseError) Code() string             { return e.code }
func (e *baseError) Severity() Severity       { return e.severity }
func (e *baseError) Retryable() RetryBehavior { return e.retryable }
func (e *baseError) Context() ErrorContext    { return e.context }
func (e *baseError) Unwrap() error            { return e.underlying }

// RemoteError represents execution runtime transport/application failures
//
// Usage: Use for runtime call timeouts, connection failures, rejected requests
// Characteristics: Usually retryable by the transport, never retried by the facade
// Examples: runtime unreachable, call timed out, malformed response
type RemoteError struct {
	*baseError
}

// StateError represents chain database and snapshot failures
//
// Usage: Use for missing snapshots, unresolvable state roots, corrupt chain records
// Characteristics: Read operations fall back to the remote path; transaction
// simulation surfaces these as state corruption
// Examples: uninitialized database, undecodable header, broken parent link
type StateError struct {
	*baseError
}

// ExecutionError represents transaction simulation rejections
//
// Usage: Use when the transaction executor rejects a simulated call
// Characteristics: Non-retryable, propagated to the caller as a typed call error
// Examples: out of gas, reverted call, invalid transaction
type ExecutionError struct {
	*baseError
}

// SystemError represents critical system-level failures
//
// Usage: Use for configuration errors, resource exhaustion, critical service failures
// Characteristics: Usually requires immediate attention, may need manual intervention
// Examples: Invalid configuration, out of memory, service unavailable
type SystemError struct {
	*baseError
}
