package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned sentinels still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound               = New("RESOURCE_NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrDuplicateResource      = New("DUPLICATE_RESOURCE", http.StatusConflict, "resource already exists")
	ErrInvalidCredentials     = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid credentials")
	ErrInvalidToken           = New("INVALID_TOKEN", http.StatusUnauthorized, "invalid or expired token")
	ErrUnauthorized           = New("UNAUTHORIZED", http.StatusUnauthorized, "authentication required")
	ErrForbidden              = New("FORBIDDEN", http.StatusForbidden, "access denied")
	ErrIllegalState           = New("ILLEGAL_STATE", http.StatusBadRequest, "operation not allowed in current state")
	ErrInvalidStateTransition = New("INVALID_STATE_TRANSITION", http.StatusBadRequest, "invalid state transition")
	ErrValidation             = New("VALIDATION_FAILED", http.StatusBadRequest, "validation failed")
	ErrFileTooLarge           = New("FILE_SIZE_EXCEEDED", http.StatusBadRequest, "file size exceeds the allowed limit")
	ErrTooManyAttempts        = New("TOO_MANY_ATTEMPTS", http.StatusTooManyRequests, "too many failed login attempts, try again later")
	ErrInternal               = New("INTERNAL_ERROR", http.StatusInternalServerError, "an unexpected error occurred")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return FromValidation(verrs)
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Validation builds a ValidationFailed error carrying a field to message map.
func Validation(fields map[string]string) *Error {
	clone := Clone(ErrValidation, "")
	clone.Fields = fields
	return clone
}

// FromValidation converts validator output into a field map keyed by the JSON field name.
func FromValidation(verrs validator.ValidationErrors) *Error {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe)] = describe(fe)
	}
	return Validation(fields)
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "uuid", "uuid4":
		return "must be a valid identifier"
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
