package onboarding

import (
	"errors"
	"maps"
	"slices"
	"strings"

	apperrors "github.com/utafrali/salesonboard/pkg/errors"
)

// FormKey holds a form-level message that belongs to no single field.
const FormKey = "form"

// FieldErrors maps form field paths such as "email" or "initial_user.password"
// to user-facing messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}

// set records msg for field when msg is non-empty.
func (f FieldErrors) set(field, msg string) {
	if msg != "" {
		f[field] = msg
	}
}

// MapCreateError turns a failed create into field messages the way the
// onboarding form shows them. It returns nil for errors that need no
// field-level treatment beyond the error itself.
func MapCreateError(err error) FieldErrors {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return nil
	}
	msg := appErr.Message
	fe := FieldErrors{}

	switch appErr.Code {
	case apperrors.CodeValidation:
		switch {
		case strings.Contains(msg, "name") && strings.Contains(msg, "email") && strings.Contains(msg, "password"):
			fe["initial_user.password"] = "Password is required"
		case strings.Contains(msg, "Password must be at least 8 characters"):
			fe["initial_user.password"] = "Password must be at least 8 characters long"
		case strings.Contains(msg, "email"):
			if strings.Contains(msg, "company") {
				fe["email"] = "Company email is invalid or already exists"
			} else {
				fe["initial_user.email"] = "User email is invalid or already exists"
			}
		case strings.Contains(msg, "name"):
			if strings.Contains(msg, "company") {
				fe["name"] = "Company name is required"
			} else {
				fe["initial_user.name"] = "User name is required"
			}
		default:
			fe[FormKey] = msg
		}
	case apperrors.CodeDuplicate:
		switch {
		case strings.Contains(msg, "Company"):
			fe["email"] = "Company with this email already exists"
		case strings.Contains(msg, "User"):
			fe["initial_user.email"] = "User with this email already exists"
		default:
			fe[FormKey] = msg
		}
	case apperrors.CodeForbidden:
		fe[FormKey] = "You do not have permission to create companies"
	case apperrors.CodeNetwork, apperrors.CodeTimeout:
		fe[FormKey] = "Network error. Please check your connection and try again."
	default:
		fe[FormKey] = orDefault(msg, "Failed to create company. Please try again.")
	}
	return fe
}

// MapServerError turns a failed company update into field messages the way
// the edit form shows them.
func MapServerError(err error) FieldErrors {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return nil
	}
	msg := appErr.Message
	fe := FieldErrors{}

	switch appErr.Code {
	case apperrors.CodeValidation:
		switch {
		case strings.Contains(msg, "email"):
			fe["email"] = "Email is invalid or already exists"
		case strings.Contains(msg, "name"):
			fe["name"] = "Company name is required"
		default:
			fe[FormKey] = msg
		}
	case apperrors.CodeDuplicate:
		if strings.Contains(msg, "email") {
			fe["email"] = "Company with this email already exists"
		} else {
			fe[FormKey] = msg
		}
	case apperrors.CodeForbidden:
		fe[FormKey] = "You do not have permission to update this company"
	case apperrors.CodeNotFound:
		fe[FormKey] = "Company not found"
	default:
		fe[FormKey] = orDefault(msg, "Failed to update company. Please try again.")
	}
	return fe
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
