package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func runRequest(inbound string) (*httptest.ResponseRecorder, string) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	if inbound != "" {
		req.Header.Set("X-Request-ID", inbound)
	}
	c.Request = req

	Middleware()(c)
	return w, Value(c)
}

func TestMiddlewareKeepsInboundID(t *testing.T) {
	w, id := runRequest("gateway-7f3a")
	assert.Equal(t, "gateway-7f3a", id)
	assert.Equal(t, "gateway-7f3a", w.Header().Get("X-Request-ID"))
}

func TestMiddlewareReplacesMalformedID(t *testing.T) {
	w, id := runRequest("not a header\r\nvalue")
	assert.NotEmpty(t, id)
	assert.NotContains(t, id, " ")
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	_, id := runRequest(strings.Repeat("a", 200))
	assert.Len(t, id, 36)
}

func TestMiddlewareGeneratesWhenMissing(t *testing.T) {
	w, id := runRequest("")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))
}
