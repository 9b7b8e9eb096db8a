package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func runRequest(method, origin string, allowed []string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, "/students", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	c.Request = req

	New(allowed)(c)
	return w
}

func TestAllowedOriginGetsCredentials(t *testing.T) {
	w := runRequest(http.MethodGet, "https://admin.campus.edu", []string{"https://admin.campus.edu/"})
	assert.Equal(t, "https://admin.campus.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestUnknownOriginGetsNothing(t *testing.T) {
	w := runRequest(http.MethodGet, "https://evil.example", []string{"https://admin.campus.edu"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestWildcardNeverSendsCredentials(t *testing.T) {
	w := runRequest(http.MethodGet, "https://anywhere.example", nil)
	assert.Equal(t, "https://anywhere.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPreflightShortCircuits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodOptions, "/students", nil)
	req.Header.Set("Origin", "https://admin.campus.edu")
	req.Header.Set("Access-Control-Request-Headers", "Authorization, X-Custom")
	c.Request = req

	New([]string{"https://admin.campus.edu"})(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Authorization, X-Custom", w.Header().Get("Access-Control-Allow-Headers"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
	assert.True(t, c.IsAborted())
}
