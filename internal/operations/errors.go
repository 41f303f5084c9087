package operations

import (
	"context"
	"errors"
	"fmt"

	apperrors "etlcli/internal/errors"
)

// ErrorType represents the type of pipeline error
type ErrorType string

const (
	ErrorTypeSchema       ErrorType = "schema"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeInvalidState ErrorType = "invalid_state"
)

// OperationError is the error returned by a failed run. Step names the phase
// that failed.
type OperationError struct {
	Type    ErrorType      `json:"type"`
	Step    string         `json:"step,omitempty"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewInvalidStateError reports a transition the state machine does not allow.
func NewInvalidStateError(from, to State) *OperationError {
	return &OperationError{
		Type:    ErrorTypeInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Context: map[string]any{
			"from": string(from),
			"to":   string(to),
		},
	}
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "step execution failed",
		Cause:   cause,
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "run was cancelled",
		Cause:   cause,
	}
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}

// WrapError wraps a step failure, classifying cancellations and schema
// failures. An OperationError is returned as is, with Step filled in.
func WrapError(err error, step string) *OperationError {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		if opErr.Step == "" {
			opErr.Step = step
		}
		return opErr
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewCancellationError(step, err)
	case errors.Is(err, apperrors.ErrSchema):
		return &OperationError{
			Type:    ErrorTypeSchema,
			Step:    step,
			Message: "input does not match the schema",
			Cause:   err,
		}
	default:
		return NewExecutionError(step, err)
	}
}
