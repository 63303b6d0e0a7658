package app

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/searchktools/webserver/config"
	"github.com/searchktools/webserver/examples/hello"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		Name  string
		Env   string
		Level string
		Want  zapcore.Level
	}{
		{Name: "development", Env: "development", Level: "debug", Want: zapcore.DebugLevel},
		{Name: "production", Env: "production", Level: "warn", Want: zapcore.WarnLevel},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Env = testCase.Env
			cfg.LogLevel = testCase.Level

			logger, err := NewLogger(cfg)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(testCase.Want))
			assert.False(t, logger.Core().Enabled(testCase.Want-1))
		})
	}

	t.Run("invalid level", func(t *testing.T) {
		cfg := config.Default()
		cfg.LogLevel = "loud"

		_, err := NewLogger(cfg)
		assert.Error(t, err)
	})
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestAppRun(t *testing.T) {
	cfg := config.Default()
	cfg.Port = freePort(t)
	cfg.ReadTimeout = time.Second

	a := New(cfg, nil)
	require.NoError(t, a.Engine().Mount(hello.Routes(&hello.Controller{})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- a.Run(ctx)
	}()
	require.Eventually(t, func() bool { return a.Engine().Addr() != nil }, 5*time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", a.Engine().Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = io.WriteString(conn, "GET / HTTP/1.1\r\n\r\n")
	require.NoError(t, err)
	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\r\n\r\nola!")

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
