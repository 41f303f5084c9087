package operations

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "etlcli/internal/errors"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"canceled", fmt.Errorf("read: %w", context.Canceled), ErrorTypeCancellation},
		{"deadline", context.DeadlineExceeded, ErrorTypeCancellation},
		{"schema", apperrors.NewSchemaError([]string{"Amount"}), ErrorTypeSchema},
		{"other", errors.New("disk full"), ErrorTypeExecution},
		{"invalid state", NewInvalidStateError(StateIdle, StateDone), ErrorTypeInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err, StepLoad)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, StepLoad, got.Step)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, WrapError(nil, StepLoad))
}

func TestWrapError_KeepsStep(t *testing.T) {
	inner := NewExecutionError(StepExtract, errors.New("x"))
	got := WrapError(fmt.Errorf("wrapped: %w", inner), StepLoad)
	assert.Same(t, inner, got)
	assert.Equal(t, StepExtract, got.Step)
}

func TestOperationError_Message(t *testing.T) {
	err := NewExecutionError(StepLoad, errors.New("disk full"))
	assert.Equal(t, "[execution] load: step execution failed: disk full", err.Error())

	inv := NewInvalidStateError(StateIdle, StateLoaded)
	assert.Equal(t, "[invalid_state] cannot transition from idle to loaded", inv.Error())
	assert.Equal(t, "idle", inv.Context["from"])

	assert.Equal(t, ErrorTypeExecution, GetErrorType(errors.New("plain")))
	assert.Equal(t, ErrorType(""), GetErrorType(nil))
}
