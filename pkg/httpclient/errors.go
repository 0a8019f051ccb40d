package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/utafrali/salesonboard/pkg/errors"
)

var errServerStatus = errors.New("server error status")

// ErrorBody is the structured error envelope returned by the backend.
type ErrorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// ErrorObject is the modeled part of ErrorBody.Error.
type ErrorObject struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// normalize turns a response into its JSON payload or an AppError. JSON is
// only parsed when the Content-Type says so; other bodies are presented as
// {"message": text}.
func normalize(resp *http.Response, text []byte) (json.RawMessage, *apperrors.AppError) {
	var data json.RawMessage
	if isJSON(resp.Header.Get("Content-Type")) {
		trimmed := bytes.TrimSpace(text)
		switch {
		case len(trimmed) == 0:
			data = json.RawMessage("{}")
		case json.Valid(trimmed):
			data = json.RawMessage(trimmed)
		default:
			return nil, apperrors.Parse(fmt.Errorf("invalid JSON body with status %d", resp.StatusCode))
		}
	} else {
		msg := string(text)
		if msg == "" {
			msg = "No content"
		}
		data, _ = json.Marshal(map[string]string{"message": msg})
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, responseError(resp, data)
}

// responseError forwards the server's structured error verbatim when the body
// has one and synthesizes HTTP_<status> otherwise.
func responseError(resp *http.Response, data json.RawMessage) *apperrors.AppError {
	var body ErrorBody
	_ = json.Unmarshal(data, &body)
	var obj ErrorObject
	if len(body.Error) > 0 && bytes.HasPrefix(bytes.TrimSpace(body.Error), []byte("{")) &&
		json.Unmarshal(body.Error, &obj) == nil {
		return &apperrors.AppError{
			Code:    obj.Code,
			Message: obj.Message,
			Details: obj.Details,
			Status:  resp.StatusCode,
			Raw:     body.Error,
		}
	}

	msg := body.Message
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText(resp))
	}
	return &apperrors.AppError{
		Code:    apperrors.HTTPCode(resp.StatusCode),
		Message: msg,
		Status:  resp.StatusCode,
	}
}

func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
