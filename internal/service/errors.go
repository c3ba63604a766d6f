package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

// validationError converts validator output into a ValidationFailed field map.
func validationError(err error, message string) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return appErrors.FromValidation(verrs)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// passThrough keeps typed application errors and wraps anything else as internal.
func passThrough(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return internalError(err, message)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeOptional applies normalize to an optional patch field.
func normalizeOptional(value *string, normalize func(string) string) *string {
	if value == nil {
		return nil
	}
	out := normalize(*value)
	return &out
}
