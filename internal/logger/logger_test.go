package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewZapLogRejectsUnknownLevel(t *testing.T) {
	_, err := NewZapLog("loud")
	require.Error(t, err)

	zl, err := NewZapLog("debug")
	require.NoError(t, err)
	require.True(t, zl.Core().Enabled(zapcore.DebugLevel))
}

func TestRequestLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := RequestLog(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/hooks/payment", nil))

	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	require.Equal(t, "/api/hooks/payment", fields["path"])
	require.Equal(t, int64(http.StatusTeapot), fields["status"])
	require.Equal(t, int64(len("short and stout")), fields["bytes"])
}
