package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/logger"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusOK, map[string]string{"key": "value"})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"key": "value"}, resp.Data)
}

func TestWriteError_AppErrorKeepsShape(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx := logger.WithCorrelationID(context.Background(), "req-1")
	req := httptest.NewRequest(http.MethodGet, "/debug/network", nil).WithContext(ctx)

	WriteError(rec, req, apperrors.Validation("bad", map[string]string{"email": "is required"}), logger.Discard())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, apperrors.CodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.JSONEq(t, `{"email":"is required"}`, string(resp.Error.Details))
}

func TestWriteError_PlainErrorIsLogged500(t *testing.T) {
	var buf bytes.Buffer
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/debug/network", nil)

	WriteError(rec, req, errors.New("disk full"), logger.NewWithWriter("test", "info", &buf))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, CodeInternal, decode(t, rec).Error.Code)
	assert.Contains(t, buf.String(), "disk full")
}

func TestStatusFor(t *testing.T) {
	cases := map[string]int{
		apperrors.CodeValidation:    http.StatusBadRequest,
		apperrors.CodeAuthRequired:  http.StatusUnauthorized,
		apperrors.CodeForbidden:     http.StatusForbidden,
		apperrors.CodeNotFound:      http.StatusNotFound,
		apperrors.CodeRouteNotFound: http.StatusNotFound,
		apperrors.CodeDuplicate:     http.StatusConflict,
		apperrors.CodeTimeout:       http.StatusGatewayTimeout,
		apperrors.CodeNetwork:       http.StatusBadGateway,
		apperrors.CodeUnknown:       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFor(apperrors.New(code, "x")), code)
	}
	assert.Equal(t, http.StatusTeapot, StatusFor(&apperrors.AppError{Code: "HTTP_418", Status: http.StatusTeapot}))
}
