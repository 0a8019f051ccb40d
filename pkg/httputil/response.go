// Package httputil writes the JSON envelope used by the local debug server.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/logger"
)

// CodeInternal is returned for failures that carry no AppError.
const CodeInternal = "INTERNAL_ERROR"

// Response is the JSON envelope of every debug-server response.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse mirrors the backend's {code, message, details} error object.
type ErrorResponse struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status. Encoding errors are dropped
// because the header is already sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a 2xx envelope around data.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Response{Data: data})
}

// WriteError writes err as an error envelope. AppErrors keep their code and
// message; anything else becomes a logged 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		WriteJSON(w, http.StatusInternalServerError, Response{
			Error: &ErrorResponse{Code: CodeInternal, Message: "an internal error occurred", RequestID: requestID},
		})
		return
	}

	status := StatusFor(appErr)
	if status >= http.StatusInternalServerError {
		l.WarnContext(r.Context(), "request failed",
			slog.String("code", appErr.Code),
			slog.String("error", appErr.Error()),
		)
	}
	WriteJSON(w, status, Response{
		Error: &ErrorResponse{
			Code:      appErr.Code,
			Message:   appErr.Message,
			Details:   appErr.Details,
			RequestID: requestID,
		},
	})
}

// StatusFor returns the HTTP status for an AppError: its own Status when
// set, otherwise one derived from the code.
func StatusFor(e *apperrors.AppError) int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeAuthRequired, apperrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.CodeForbidden:
		return http.StatusForbidden
	case apperrors.CodeNotFound, apperrors.CodeRouteNotFound:
		return http.StatusNotFound
	case apperrors.CodeDuplicate:
		return http.StatusConflict
	case apperrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.CodeNetwork, apperrors.CodeParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
