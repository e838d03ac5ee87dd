package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	prev := Log
	Log = zap.New(core)
	t.Cleanup(func() { Log = prev })
	return logs
}

func TestRequestLogger_RedactsCredentialsInQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := observe(t)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ws/orders", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/callback", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{
		"/ws/orders?token=eyJhbGciOiJIUzI1NiJ9.secret",
		"/api/callback?code=auth-code-123&state=signed-state&page=2",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "token=REDACTED", entries[0].ContextMap()["query"])
	assert.Equal(t, "code=REDACTED&page=2&state=REDACTED", entries[1].ContextMap()["query"])
	for _, e := range entries {
		q := e.ContextMap()["query"].(string)
		assert.NotContains(t, q, "secret")
		assert.NotContains(t, q, "auth-code-123")
		assert.NotContains(t, q, "signed-state")
	}
}

func TestRedactQuery(t *testing.T) {
	assert.Equal(t, "", redactQuery(""))
	assert.Equal(t, "limit=10&offset=20", redactQuery("offset=20&limit=10"))
	assert.Equal(t, "[unparseable]", redactQuery("token=%zz"))
}
