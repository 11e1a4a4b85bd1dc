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

func newLoggedRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Request-ID"); id != "" {
			c.Set("request_id", id)
		}
		c.Next()
	})
	r.Use(Recovery(log), GinMiddleware(log))
	return r, recorded
}

func requestLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage("HTTP request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestGinMiddlewareLevels(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			r, recorded := newLoggedRouter(t)
			r.GET("/cart", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart?page=2", nil))

			entry := requestLog(t, recorded)
			assert.Equal(t, tt.level, entry.Level)
			fields := entry.ContextMap()
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, "/cart", fields["path"])
			assert.Equal(t, "page=2", fields["query"])
		})
	}
}

func TestGinMiddlewarePropagatesRequestLogger(t *testing.T) {
	r, recorded := newLoggedRouter(t)
	r.GET("/orders", func(c *gin.Context) {
		assert.Equal(t, "req-42", RequestID(c.Request.Context()))
		FromContext(c.Request.Context()).Info("listing orders")
		GetGinLogger(c).Debug("from gin context")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("X-Request-ID", "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	for _, msg := range []string{"listing orders", "from gin context", "HTTP request"} {
		entries := recorded.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"], msg)
	}
}

func TestGinMiddlewareLogsUserAfterAuth(t *testing.T) {
	r, recorded := newLoggedRouter(t)
	r.GET("/user/orders", func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), "user-9"))
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/user/orders", nil))

	assert.Equal(t, "user-9", requestLog(t, recorded).ContextMap()["user_id"])
}

func TestRecovery(t *testing.T) {
	r, recorded := newLoggedRouter(t)
	r.GET("/boom", func(c *gin.Context) { panic("nil order") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	panics := recorded.FilterMessage("Panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "nil order", panics[0].ContextMap()["panic"])
}

func TestGetGinLoggerWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
