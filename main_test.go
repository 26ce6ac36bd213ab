package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-gateway/internal/config"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	return port
}

func TestNewApp_WiresConfiguredServer(t *testing.T) {
	mr := miniredis.RunT(t)
	viper.Set("redis.addr", mr.Addr())
	viper.Set("server.port", "18080")
	viper.Set("server.write_timeout", "7s")
	t.Cleanup(func() {
		viper.Set("server.port", "8080")
		viper.Set("server.write_timeout", "45s")
	})
	config.ReloadConfigForTest()

	a := newApp(zap.NewNop().Sugar())
	require.NotNil(t, a.server)
	assert.Equal(t, ":18080", a.server.Addr)
	assert.Equal(t, 7*time.Second, a.server.WriteTimeout)

	w := httptest.NewRecorder()
	a.server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, a.closeRedis())
}

func TestApp_RunServesAndShutsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	port := freePort(t)
	viper.Set("redis.addr", mr.Addr())
	viper.Set("server.port", port)
	t.Cleanup(func() { viper.Set("server.port", "8080") })
	config.ReloadConfigForTest()

	logger := zap.NewNop().Sugar()
	a := newApp(logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.run(ctx, logger) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://127.0.0.1:" + port + "/")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 20*time.Millisecond)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "Welcome to "+config.GetAppName(), body["message"])
	assert.Equal(t, "/docs", body["docs"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestApp_RunReportsListenErrors(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	_, port, _ := net.SplitHostPort(l.Addr().String())

	mr := miniredis.RunT(t)
	viper.Set("redis.addr", mr.Addr())
	viper.Set("server.port", port)
	t.Cleanup(func() { viper.Set("server.port", "8080") })
	config.ReloadConfigForTest()

	logger := zap.NewNop().Sugar()
	a := newApp(logger)
	// Bind to the exact address that is already held.
	a.server.Addr = "127.0.0.1:" + port

	select {
	case err := <-runAsync(a, logger):
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expected listen error")
	}
}

func runAsync(a *app, logger *zap.SugaredLogger) <-chan error {
	done := make(chan error, 1)
	go func() { done <- a.run(context.Background(), logger) }()
	return done
}
