package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"greendrake/estates/internal/api/middleware"
)

func setupLimitedEngine(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	rateLimiter := middleware.NewRateLimiterMiddleware(testConfig(), zap.NewNop())
	t.Cleanup(rateLimiter.Close)

	r := gin.New()
	r.Use(rateLimiter.Limit())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return r
}

func hit(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterMiddleware_Limit(t *testing.T) {
	r := setupLimitedEngine(t)

	assert.Equal(t, http.StatusOK, hit(r, "1.2.3.4:12345").Code)

	w := hit(r, "1.2.3.4:12345")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Too many requests"}`, w.Body.String())
}

func TestRateLimiterMiddleware_PerClient(t *testing.T) {
	r := setupLimitedEngine(t)

	assert.Equal(t, http.StatusOK, hit(r, "1.2.3.4:1000").Code)
	assert.Equal(t, http.StatusOK, hit(r, "5.6.7.8:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "1.2.3.4:2000").Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	preflight := func(origins []string, origin string) *httptest.ResponseRecorder {
		r := gin.New()
		r.Use(middleware.CORS(origins))
		r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/test", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		r.ServeHTTP(w, req)
		return w
	}

	w := preflight([]string{"*"}, "http://localhost:5173")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = preflight([]string{"https://estates.example.com"}, "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
