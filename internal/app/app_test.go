package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/salesonboard/internal/auth"
	"github.com/utafrali/salesonboard/internal/config"
	"github.com/utafrali/salesonboard/internal/session/memory"
	"github.com/utafrali/salesonboard/pkg/health"
	"github.com/utafrali/salesonboard/pkg/logger"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Environment:    "test",
		APIBaseURL:     baseURL,
		APITimeout:     time.Second,
		LoginRole:      "salesman",
		SessionBackend: config.BackendMemory,
		SessionProfile: "default",
		UploadParallel: 1,
		NetlogCapacity: 5,
		DebugHTTPPort:  8099,
		OTelSampleRate: 1,
	}
}

func TestNew_WiresLoginThroughNetworkLog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok","user":{"id":"s1","name":"Ravi","email":"ravi@example.test","role":"salesman"}}`))
	}))
	defer srv.Close()

	kv := memory.New()
	a, err := New(context.Background(), testConfig(srv.URL), logger.Discard(), WithSessionStore(kv))
	require.NoError(t, err)
	defer a.Close(context.Background())

	_, err = a.Auth.Login(context.Background(), authCreds())
	require.NoError(t, err)

	assert.True(t, a.Auth.IsAuthenticated(context.Background()))
	assert.Equal(t, 4, kv.Len())
	require.Equal(t, 1, a.NetLog.Len())
	assert.Equal(t, http.MethodPost, a.NetLog.Entries()[0].Method)
	assert.False(t, a.Events.Enabled())

	resp := a.Health.Check(context.Background())
	assert.Equal(t, health.StatusUp, resp.Status)
	assert.ElementsMatch(t, []string{"backend", "session"}, a.Health.Names())
}

func TestNew_FileBackend(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.SessionBackend = config.BackendFile
	cfg.SessionFile = filepath.Join(t.TempDir(), "session.json")

	a, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer a.Close(context.Background())

	require.NoError(t, a.Sessions.Ping(context.Background()))
}

func TestNew_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig("http://127.0.0.1:1")
	cfg.SessionBackend = config.BackendRedis
	cfg.RedisAddr = mr.Addr()

	a, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, a.Sessions.Ping(context.Background()))
	require.NoError(t, a.Close(context.Background()))
}

func TestNew_RedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig("http://127.0.0.1:1")
	cfg.SessionBackend = config.BackendRedis
	cfg.RedisAddr = addr

	_, err = New(context.Background(), cfg, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open redis session store")
}

func TestNew_EventsRegisterNonCriticalCheck(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.KafkaBrokers = []string{"127.0.0.1:1"}

	a, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.True(t, a.Events.Enabled())
	assert.Contains(t, a.Health.Names(), "events")
}

func authCreds() auth.Credentials {
	return auth.Credentials{Username: "Ravi@Example.test", Password: "secret1"}
}
