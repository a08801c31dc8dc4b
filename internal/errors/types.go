// Package errors defines the structured error type shared by every
// polarstudio package, the four error kinds the share-link pipeline can
// surface, and the helpers used to classify, log and localize them.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeFormat     ErrorType = "format"
	ErrorTypeMalformed  ErrorType = "malformed"
	ErrorTypeUnknown    ErrorType = "unknown_component"
	ErrorTypeClipboard  ErrorType = "clipboard"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// NoRecord marks an error that cannot be attributed to a single token record.
const NoRecord = -1

// StudioError is a structured error type with context.
type StudioError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Record      int
	Recoverable bool
}

// Error implements the error interface.
func (e *StudioError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	if e.Record >= 0 {
		parts = append(parts, fmt.Sprintf("record:%d", e.Record))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *StudioError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *StudioError) Is(target error) bool {
	var t *StudioError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *StudioError) WithContext(key string, value interface{}) *StudioError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithRecord attaches the zero-based index of the offending token record.
func (e *StudioError) WithRecord(index int) *StudioError {
	e.Record = index

	return e
}

// WithFile adds file location information.
func (e *StudioError) WithFile(filePath string) *StudioError {
	e.FilePath = filePath

	return e
}

// WithComponent adds component context.
func (e *StudioError) WithComponent(component string) *StudioError {
	e.Component = component

	return e
}

// WithCause sets the underlying cause.
func (e *StudioError) WithCause(cause error) *StudioError {
	e.Cause = cause

	return e
}

func newError(t ErrorType, code, message string, recoverable bool) *StudioError {
	return &StudioError{
		Type:        t,
		Code:        code,
		Message:     message,
		Record:      NoRecord,
		Recoverable: recoverable,
	}
}

// Common error codes.
const (
	ErrCodeUnsupportedVersion   = "ERR_UNSUPPORTED_FORMAT_VERSION"
	ErrCodeMalformedToken       = "ERR_MALFORMED_TOKEN"
	ErrCodeUnknownComponent     = "ERR_UNKNOWN_COMPONENT_TYPE"
	ErrCodeClipboardUnavailable = "ERR_CLIPBOARD_UNAVAILABLE"
	ErrCodeInvalidOrigin        = "ERR_INVALID_ORIGIN"
	ErrCodeInvalidLink          = "ERR_INVALID_LINK"
	ErrCodeConfigInvalid        = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound         = "ERR_FILE_NOT_FOUND"
	ErrCodeValidationFailed     = "ERR_VALIDATION_FAILED"
	ErrCodeInternalError        = "ERR_INTERNAL"
)

// Sentinels usable with errors.Is; only Type and Code are compared.
var (
	ErrUnsupportedFormatVersion = newError(ErrorTypeFormat, ErrCodeUnsupportedVersion, "unsupported format version", false)
	ErrMalformedToken           = newError(ErrorTypeMalformed, ErrCodeMalformedToken, "malformed token", false)
	ErrUnknownComponentType     = newError(ErrorTypeUnknown, ErrCodeUnknownComponent, "unknown component type", false)
	ErrClipboardUnavailable     = newError(ErrorTypeClipboard, ErrCodeClipboardUnavailable, "clipboard unavailable", true)
)

// Error creation functions

// NewUnsupportedVersionError reports a token written by a newer format.
func NewUnsupportedVersionError(got, supported int) *StudioError {
	return newError(
		ErrorTypeFormat,
		ErrCodeUnsupportedVersion,
		fmt.Sprintf("token format version %d is newer than supported version %d", got, supported),
		false,
	).WithContext("version", got).WithContext("supported", supported)
}

// NewMalformedTokenError reports a structural parse failure. record is the
// zero-based index of the offending record, or NoRecord.
func NewMalformedTokenError(record int, message string) *StudioError {
	return newError(ErrorTypeMalformed, ErrCodeMalformedToken, message, false).WithRecord(record)
}

// NewUnknownComponentError reports a tag that does not resolve through the registry.
func NewUnknownComponentError(record int, tag string) *StudioError {
	return newError(
		ErrorTypeUnknown,
		ErrCodeUnknownComponent,
		fmt.Sprintf("unknown component type %q", tag),
		false,
	).WithRecord(record).WithContext("tag", tag)
}

// NewClipboardUnavailableError reports that both clipboard paths failed.
func NewClipboardUnavailableError(asyncErr, fallbackErr error) *StudioError {
	return newError(
		ErrorTypeClipboard,
		ErrCodeClipboardUnavailable,
		"clipboard unavailable",
		true,
	).WithCause(errors.Join(asyncErr, fallbackErr))
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *StudioError {
	return newError(ErrorTypeValidation, code, message, true)
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *StudioError {
	return newError(ErrorTypeIO, code, message, false).WithCause(cause)
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *StudioError {
	return newError(ErrorTypeConfig, code, message, false)
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *StudioError {
	return newError(ErrorTypeInternal, code, message, false).WithCause(cause)
}

// Error recovery and handling utilities

func typeOf(err error) (ErrorType, bool) {
	var se *StudioError
	if errors.As(err, &se) {
		return se.Type, true
	}

	return "", false
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var se *StudioError
	if errors.As(err, &se) {
		return se.Recoverable
	}

	return false
}

// IsUnsupportedVersion reports whether err is an UnsupportedFormatVersion error.
func IsUnsupportedVersion(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrorTypeFormat
}

// IsMalformed reports whether err is a MalformedToken error.
func IsMalformed(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrorTypeMalformed
}

// IsUnknownComponent reports whether err is an UnknownComponentType error.
func IsUnknownComponent(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrorTypeUnknown
}

// IsClipboardUnavailable reports whether err is a ClipboardUnavailable error.
func IsClipboardUnavailable(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrorTypeClipboard
}

// RecordOf returns the record index carried by err, or NoRecord.
func RecordOf(err error) int {
	var se *StudioError
	if errors.As(err, &se) {
		return se.Record
	}

	return NoRecord
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level matching its type. Decode failures are caused
// by user input and log as warnings; everything else logs as an error.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var se *StudioError
	if !errors.As(err, &se) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch se.Type {
	case ErrorTypeFormat, ErrorTypeMalformed, ErrorTypeUnknown, ErrorTypeValidation:
		h.logger.Warn(ctx, err, "Rejected input",
			"type", se.Type,
			"code", se.Code,
			"record", se.Record)
	case ErrorTypeClipboard:
		h.logger.Warn(ctx, err, "Clipboard copy failed",
			"type", se.Type,
			"code", se.Code)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", se.Type,
			"code", se.Code,
			"component", se.Component)
	}
}

// ValidationError interface for field-specific validation errors.
type ValidationError interface {
	error
	Field() string
	Value() interface{}
	Suggestions() []string
}

// FieldValidationError implements ValidationError for specific field errors.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
	HelpText     []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// Field returns the field name that failed validation.
func (fve *FieldValidationError) Field() string {
	return fve.FieldName
}

// Value returns the invalid value.
func (fve *FieldValidationError) Value() interface{} {
	return fve.FieldValue
}

// Suggestions returns helpful suggestions for fixing the error.
func (fve *FieldValidationError) Suggestions() []string {
	return fve.HelpText
}

// NewFieldValidationError creates a new field validation error.
func NewFieldValidationError(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
		HelpText:     suggestions,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// Add adds a validation error to the collection.
func (vec *ValidationErrorCollection) Add(err ValidationError) {
	vec.Errors = append(vec.Errors, err)
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) {
	vec.Add(NewFieldValidationError(field, value, message, suggestions...))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToStudioError converts the validation collection to a StudioError.
func (vec *ValidationErrorCollection) ToStudioError() *StudioError {
	if !vec.HasErrors() {
		return nil
	}

	var messages []string
	context := make(map[string]interface{})

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.Field()] = map[string]interface{}{
			"value":       err.Value(),
			"suggestions": err.Suggestions(),
		}
	}

	se := NewValidationError(ErrCodeValidationFailed, strings.Join(messages, "; "))
	se.Context = context

	return se
}
