package httpclient

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "github.com/utafrali/salesonboard/pkg/errors"
)

// Result holds exactly one of Data or Err.
type Result[T any] struct {
	Data *T
	Err  *apperrors.AppError
}

// OK wraps a successful payload.
func OK[T any](data *T) Result[T] {
	if data == nil {
		data = new(T)
	}
	return Result[T]{Data: data}
}

// Fail wraps a normalized error.
func Fail[T any](err *apperrors.AppError) Result[T] {
	if err == nil {
		err = apperrors.Unknown(nil)
	}
	return Result[T]{Err: err}
}

// Failed reports whether the call ended in an error.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// Unwrap converts the result into Go's (value, error) pair.
func (r Result[T]) Unwrap() (*T, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Data, nil
}

// Send executes req and decodes the JSON payload into T. A payload that does
// not fit T is reported as PARSE_ERROR.
func Send[T any](ctx context.Context, c *Client, req Request) Result[T] {
	res := c.Do(ctx, req)
	if res.Err != nil {
		return Fail[T](res.Err)
	}
	var out T
	if err := json.Unmarshal(*res.Data, &out); err != nil {
		return Fail[T](apperrors.Parse(err))
	}
	return OK(&out)
}

// Get performs a GET request.
func Get[T any](ctx context.Context, c *Client, endpoint string, requiresAuth bool) Result[T] {
	return Send[T](ctx, c, Request{Method: http.MethodGet, Endpoint: endpoint, RequiresAuth: requiresAuth})
}

// Post performs a POST request with a JSON body.
func Post[T any](ctx context.Context, c *Client, endpoint string, body any, requiresAuth bool) Result[T] {
	return Send[T](ctx, c, Request{Method: http.MethodPost, Endpoint: endpoint, Body: body, RequiresAuth: requiresAuth})
}

// Put performs a PUT request with a JSON body.
func Put[T any](ctx context.Context, c *Client, endpoint string, body any, requiresAuth bool) Result[T] {
	return Send[T](ctx, c, Request{Method: http.MethodPut, Endpoint: endpoint, Body: body, RequiresAuth: requiresAuth})
}

// Delete performs a DELETE request.
func Delete[T any](ctx context.Context, c *Client, endpoint string, requiresAuth bool) Result[T] {
	return Send[T](ctx, c, Request{Method: http.MethodDelete, Endpoint: endpoint, RequiresAuth: requiresAuth})
}

// DecodeWrapped decodes raw into out, accepting both a bare object and one
// wrapped as {"<key>": {...}}. Failures are PARSE_ERROR.
func DecodeWrapped(raw json.RawMessage, key string, out any) error {
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return apperrors.Parse(err)
	}
	if inner, ok := wrapped[key]; ok && len(inner) > 0 && inner[0] == '{' {
		raw = inner
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Parse(err)
	}
	return nil
}
