package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greendrake/estates/internal/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		CookieName:     "token",
		JwtTTL:         time.Hour,
		ImageMaxSizeMB: 1,
	}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func errorString(t *testing.T, env envelope) string {
	t.Helper()
	var msg string
	require.NoError(t, json.Unmarshal(env.Error, &msg), string(env.Error))
	return msg
}

func errorList(t *testing.T, env envelope) []string {
	t.Helper()
	var msgs []string
	require.NoError(t, json.Unmarshal(env.Error, &msgs), string(env.Error))
	return msgs
}
