package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Transport-level codes produced by the HTTP gateway itself.
const (
	CodeTimeout      = "TIMEOUT"
	CodeNetwork      = "NETWORK_ERROR"
	CodeParse        = "PARSE_ERROR"
	CodeUnknown      = "UNKNOWN_ERROR"
	CodeAuthRequired = "AUTH_REQUIRED"
)

// Structured codes returned by the onboarding backend.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeDuplicate     = "DUPLICATE_ENTRY"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeRouteNotFound = "ROUTE_NOT_FOUND"
	CodeUnauthorized  = "UNAUTHORIZED"
)

// Sentinels match any AppError carrying the same code via errors.Is.
var (
	ErrTimeout      = &AppError{Code: CodeTimeout}
	ErrNetwork      = &AppError{Code: CodeNetwork}
	ErrParse        = &AppError{Code: CodeParse}
	ErrUnknown      = &AppError{Code: CodeUnknown}
	ErrAuthRequired = &AppError{Code: CodeAuthRequired}
	ErrValidation   = &AppError{Code: CodeValidation}
	ErrDuplicate    = &AppError{Code: CodeDuplicate}
	ErrForbidden    = &AppError{Code: CodeForbidden}
	ErrNotFound     = &AppError{Code: CodeNotFound}
	ErrUnauthorized = &AppError{Code: CodeUnauthorized}
)

// AppError is the canonical {code, message, details} error shape. Every
// failure leaving the gateway or a resource client is an *AppError.
type AppError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
	Status  int             `json:"-"`
	Err     error           `json:"-"`

	// Raw is the server's error object as received, keys not modeled
	// above included. Empty for errors raised on the client.
	Raw json.RawMessage `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// New creates an AppError with the given code and message.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Timeout creates the error returned when a request exceeds its deadline.
func Timeout(err error) *AppError {
	return &AppError{
		Code:    CodeTimeout,
		Message: "Request timeout. Please try again.",
		Err:     err,
	}
}

// Network creates the error returned for transport failures.
func Network(err error) *AppError {
	return &AppError{
		Code:    CodeNetwork,
		Message: "Network error. Please check your connection.",
		Err:     err,
	}
}

// Parse creates the error returned when a response body is not valid JSON.
func Parse(err error) *AppError {
	return &AppError{
		Code:    CodeParse,
		Message: "Failed to parse response as JSON",
		Err:     err,
	}
}

// Unknown wraps any failure that is neither a timeout nor a transport error.
func Unknown(err error) *AppError {
	msg := "An unexpected error occurred"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &AppError{Code: CodeUnknown, Message: msg, Err: err}
}

// AuthRequired is returned before any network call when no token is cached.
func AuthRequired() *AppError {
	return &AppError{
		Code:    CodeAuthRequired,
		Message: "Authentication required",
		Status:  http.StatusUnauthorized,
	}
}

// Validation creates a client-side VALIDATION_ERROR whose details map
// field names to messages.
func Validation(message string, fields map[string]string) *AppError {
	appErr := &AppError{Code: CodeValidation, Message: message, Status: http.StatusBadRequest}
	if len(fields) > 0 {
		if raw, err := json.Marshal(fields); err == nil {
			appErr.Details = raw
		}
	}
	return appErr
}

// HTTPCode returns the synthesized code for an unstructured non-2xx response.
func HTTPCode(status int) string {
	return fmt.Sprintf("HTTP_%d", status)
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// MessageOf returns the message of the first AppError in err's chain, or
// err.Error() for other errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}
