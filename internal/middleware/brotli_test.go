package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brotliRouter(body string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Brotli())
	handler := func(c *gin.Context) { c.String(http.StatusOK, body) }
	r.GET("/data", handler)
	r.GET("/certificate.pdf", handler)
	return r
}

func get(r http.Handler, path, acceptEncoding string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat(`{"exam":"go-basics"},`, 200)
	w := get(brotliRouter(body), "/data", "gzip, br;q=0.9")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
	assert.Less(t, w.Body.Len(), len(body))

	plain, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, body, string(plain))
}

func TestBrotliPassThrough(t *testing.T) {
	large := strings.Repeat("x", 4096)

	tests := []struct {
		name   string
		body   string
		path   string
		accept string
	}{
		{"small body", "ok", "/data", "br"},
		{"client without br", large, "/data", "gzip"},
		{"pdf download", large, "/certificate.pdf", "br"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(brotliRouter(tt.body), tt.path, tt.accept)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestAcceptsBrotli(t *testing.T) {
	for header, want := range map[string]bool{
		"br":                true,
		"gzip, deflate, br": true,
		"BR;q=0.5":          true,
		"gzip":              false,
		"":                  false,
		"brotli":            false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", header)
		assert.Equal(t, want, acceptsBrotli(req), header)
	}
}
