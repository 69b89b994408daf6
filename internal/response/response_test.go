package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		Success(c, http.StatusOK, gin.H{"seen": RequestID(c)})
	})
	return r
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "caller id is kept", header: "web-7f3a_01:retry.2", keep: true},
		{name: "missing id is generated", header: ""},
		{name: "header injection is replaced", header: "abc\r\nSet-Cookie: x=1"},
		{name: "spaces are replaced", header: "two words"},
		{name: "oversized id is replaced", header: strings.Repeat("a", 65)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header[HeaderRequestID] = []string{tt.header}
			}
			w := httptest.NewRecorder()
			newRouter().ServeHTTP(w, req)
			require.Equal(t, http.StatusOK, w.Code)

			got := w.Header().Get(HeaderRequestID)
			if tt.keep {
				assert.Equal(t, tt.header, got)
			} else {
				_, err := uuid.Parse(got)
				assert.NoError(t, err, "expected a generated uuid, got %q", got)
			}

			var env struct {
				Data     map[string]string `json:"data"`
				Metadata Metadata          `json:"metadata"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, got, env.Data["seen"])
			assert.Equal(t, got, env.Metadata.RequestID)
		})
	}
}

func TestRequestID_WithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Empty(t, RequestID(c))

	meta := buildMetadata(c)
	_, err := uuid.Parse(meta.RequestID)
	assert.NoError(t, err)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 2, PerPage: 5, TotalItems: 6, TotalPages: 2}, *NewPagination(2, 5, 6))
	assert.Equal(t, Pagination{Page: 1, PerPage: 10, TotalItems: 0, TotalPages: 0}, *NewPagination(1, 10, 0))
	assert.Equal(t, Pagination{Page: 1, PerPage: 0, TotalItems: 3, TotalPages: 1}, *NewPagination(1, 0, 3))
}
