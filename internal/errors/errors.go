package errors

import (
	"errors"
	"log/slog"
)

// Failure is the structured description of an error that ended a command.
type Failure struct {
	Code    string         `json:"error_code"`
	Type    ErrorType      `json:"type,omitempty"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Error codes of command failures
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeInputNotFound    = "INPUT_NOT_FOUND"
	CodeInputUnreadable  = "INPUT_UNREADABLE"
	CodeSchemaMismatch   = "SCHEMA_MISMATCH"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeOutputFailed     = "OUTPUT_FAILED"
	CodePermission       = "PERMISSION_DENIED"
	CodeInternal         = "INTERNAL_ERROR"
)

var codes = map[ErrorType]string{
	ErrTypeConfig:     CodeConfigInvalid,
	ErrTypeNotFound:   CodeInputNotFound,
	ErrTypeParsing:    CodeInputUnreadable,
	ErrTypeSchema:     CodeSchemaMismatch,
	ErrTypeValidation: CodeValidationFailed,
	ErrTypeStorage:    CodeOutputFailed,
	ErrTypePermission: CodePermission,
}

// Describe classifies err by the first AppError or SchemaError in its chain.
// Anything else is CodeInternal.
func Describe(err error) Failure {
	if err == nil {
		return Failure{}
	}
	f := Failure{Code: CodeInternal, Message: err.Error()}

	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		f.Code = CodeSchemaMismatch
		f.Type = ErrTypeSchema
		f.Context = map[string]any{"missing_columns": schemaErr.Missing}
		return f
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		f.Type = appErr.Type
		if code, ok := codes[appErr.Type]; ok {
			f.Code = code
		}
		if len(appErr.Context) > 0 {
			f.Context = appErr.Context
		}
	}
	return f
}

// Attrs returns the failure as log attributes.
func (f Failure) Attrs() []any {
	attrs := []any{
		slog.String("error_code", f.Code),
		slog.String("error", f.Message),
	}
	if f.Type != "" {
		attrs = append(attrs, slog.String("error_type", string(f.Type)))
	}
	if len(f.Context) > 0 {
		attrs = append(attrs, slog.Any("context", f.Context))
	}
	return attrs
}
