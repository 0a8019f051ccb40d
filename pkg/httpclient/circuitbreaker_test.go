package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/logger"
)

func testCBConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      200 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func TestCircuitBreaker_ClosedState_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, WithLogger(logger.Discard()), WithCircuitBreaker(testCBConfig("test-closed")))

	res := c.Do(context.Background(), Request{Method: http.MethodGet, Endpoint: "/"})
	require.Nil(t, res.Err)
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestCircuitBreaker_ServerErrorBodyStillNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error":{"code":"INTERNAL","message":"db down"}}`)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, WithLogger(logger.Discard()), WithCircuitBreaker(testCBConfig("test-5xx-body")))

	res := c.Do(context.Background(), Request{Method: http.MethodGet, Endpoint: "/"})
	require.NotNil(t, res.Err)
	assert.Equal(t, "INTERNAL", res.Err.Code)
	assert.Equal(t, "db down", res.Err.Message)
}

func TestCircuitBreaker_TripsAndReportsNetworkError(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusInternalServerError, `{}`)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, WithLogger(logger.Discard()), WithCircuitBreaker(testCBConfig("test-trip")))

	for i := 0; i < 3; i++ {
		res := c.Do(context.Background(), Request{Method: http.MethodGet, Endpoint: "/"})
		require.NotNil(t, res.Err)
		assert.Equal(t, "HTTP_500", res.Err.Code)
	}
	assert.Equal(t, gobreaker.StateOpen, c.BreakerState())

	res := c.Do(context.Background(), Request{Method: http.MethodGet, Endpoint: "/"})
	require.NotNil(t, res.Err)
	assert.Equal(t, apperrors.CodeNetwork, res.Err.Code)
	assert.Equal(t, int32(3), hits.Load(), "open breaker must not reach the server")
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"Company not found"}}`)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, WithLogger(logger.Discard()), WithCircuitBreaker(testCBConfig("test-4xx")))
	for i := 0; i < 5; i++ {
		res := c.Do(context.Background(), Request{Method: http.MethodGet, Endpoint: "/"})
		require.NotNil(t, res.Err)
		assert.Equal(t, apperrors.CodeNotFound, res.Err.Code)
	}
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	var healthy atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			writeJSON(w, http.StatusOK, `{}`)
			return
		}
		writeJSON(w, http.StatusInternalServerError, `{}`)
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL}, WithLogger(logger.Discard()), WithCircuitBreaker(testCBConfig("test-recover")))
	for i := 0; i < 3; i++ {
		_ = c.Do(context.Background(), Request{Method: http.MethodGet, Endpoint: "/"})
	}
	require.Equal(t, gobreaker.StateOpen, c.BreakerState())

	healthy.Store(true)
	time.Sleep(300 * time.Millisecond)

	res := c.Do(context.Background(), Request{Method: http.MethodGet, Endpoint: "/"})
	require.Nil(t, res.Err)
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestBreakerState_NoBreaker(t *testing.T) {
	c := New(DefaultConfig(), WithLogger(logger.Discard()))
	assert.Equal(t, gobreaker.StateClosed, c.BreakerState())
}

func TestStateToFloat(t *testing.T) {
	assert.Equal(t, 0.0, stateToFloat(gobreaker.StateClosed))
	assert.Equal(t, 1.0, stateToFloat(gobreaker.StateHalfOpen))
	assert.Equal(t, 2.0, stateToFloat(gobreaker.StateOpen))
}
