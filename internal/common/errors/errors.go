// Package errors provides standardized error handling for the email pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeClassificationFailed  ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeClassificationTimeout ErrorCode = "CLASSIFICATION_TIMEOUT"
	ErrCodeDisambiguationFailed  ErrorCode = "DISAMBIGUATION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeTaskSyncFailed    ErrorCode = "TASK_SYNC_FAILED"
	ErrCodeSearchIndexFailed ErrorCode = "SEARCH_INDEX_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	// RoutingTableViolation marks the only fatal class: a category/effort
	// combination the routing table cannot resolve. The table is total, so
	// hitting this means a programming error, not bad input.
	ErrCodeRoutingTableViolation ErrorCode = "ROUTING_TABLE_VIOLATION"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Fatal     bool                   `json:"fatal"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Error Constructors

// NewClassificationFailedError creates a retryable classifier error. Callers
// fall back to an unknown-category classification rather than aborting.
func NewClassificationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationFailed,
		Message:   "Classification API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassificationTimeoutError creates a retryable classifier timeout error.
func NewClassificationTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationTimeout,
		Message:   "Classification API timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDisambiguationFailedError creates a non-retryable disambiguation error.
// Disambiguation never escalates: callers use the top local candidate.
func NewDisambiguationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDisambiguationFailed,
		Message:   "Match disambiguation error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTaskSyncFailedError creates a retryable task sync error. The task stays
// in the failed state and is picked up by a later re-sync pass.
func NewTaskSyncFailedError(taskID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTaskSyncFailed,
		Message:   "Task sync delivery failed",
		Details:   fmt.Sprintf("taskId: %s, error: %s", taskID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchIndexFailedError creates a non-retryable search index error.
// Indexing is best effort and never blocks the pipeline.
func NewSearchIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchIndexFailed,
		Message:   "Search index write failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRoutingTableViolationError creates the fatal invariant error.
func NewRoutingTableViolationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRoutingTableViolation,
		Message:   "Routing table produced no decision",
		Details:   details,
		Retryable: false,
		Fatal:     true,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeTaskSyncFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeClassificationFailed:
		return 2

	case ErrCodeClassificationTimeout:
		return 1

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// CodeOf returns the code carried by err. Errors from outside the
// StandardError family report as query execution failures.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Code
	}
	return ErrCodeQueryExecutionFailed
}

// IsFatal reports whether err is an invariant violation that must propagate.
func IsFatal(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Fatal
	}
	return false
}
