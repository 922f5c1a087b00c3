package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/care-assist/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.Use(Auth([]string{"secret-token", " "}))
	r.GET("/v1/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"Missing header", "", http.StatusUnauthorized},
		{"Wrong scheme", "Basic secret-token", http.StatusUnauthorized},
		{"Wrong token", "Bearer nope", http.StatusUnauthorized},
		{"Valid token", "Bearer secret-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := perform(r, http.MethodGet, "/v1/ping", headers)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuth_NoKeysConfigured(t *testing.T) {
	r := gin.New()
	r.Use(Auth(nil))
	r.GET("/v1/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/v1/ping", nil).Code)
}

func TestGenerationLimiter(t *testing.T) {
	gl := NewGenerationLimiter(0.5, 2, zap.NewNop())
	r := gin.New()
	r.Use(gl.Middleware())
	r.POST("/v1/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/v1/chat", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/v1/chat", nil).Code)

	w := perform(r, http.MethodPost, "/v1/chat", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestGenerationLimiter_KeyedByAPIKey(t *testing.T) {
	gl := NewGenerationLimiter(0.0001, 1, zap.NewNop())
	r := gin.New()
	r.Use(Auth([]string{"site-a", "site-b"}), gl.Middleware())
	r.POST("/v1/alt-text", func(c *gin.Context) { c.Status(http.StatusOK) })

	siteA := map[string]string{"Authorization": "Bearer site-a"}
	siteB := map[string]string{"Authorization": "Bearer site-b"}

	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/v1/alt-text", siteA).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodPost, "/v1/alt-text", siteA).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/v1/alt-text", siteB).Code)
}

func TestGenerationLimiter_Disabled(t *testing.T) {
	gl := NewGenerationLimiter(0, 1, zap.NewNop())
	r := gin.New()
	r.Use(gl.Middleware())
	r.POST("/v1/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/v1/chat", nil).Code)
	}
}

func TestGenerationLimiter_EvictsIdleCallers(t *testing.T) {
	gl := NewGenerationLimiter(1, 1, zap.NewNop())
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	gl.now = func() time.Time { return now }

	gl.bucketFor("ip:10.0.0.1", now)
	gl.bucketFor("ip:10.0.0.2", now)
	require.Len(t, gl.callers, 2)

	now = now.Add(DefaultIdleTTL)
	gl.bucketFor("ip:10.0.0.2", now)
	assert.Len(t, gl.callers, 1)
	assert.Contains(t, gl.callers, "ip:10.0.0.2")
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop()))
	r.GET("/problem", func(c *gin.Context) {
		_ = c.Error(api.BadRequestError("days must be a number"))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("raw failure"))
	})

	w := perform(r, http.MethodGet, "/problem", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "days must be a number", body["detail"])
	assert.Equal(t, "/problem", body["instance"])

	w = perform(r, http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "raw failure")
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/v1/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodOptions, "/v1/chat", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
